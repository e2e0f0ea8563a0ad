package session

import (
	"strings"

	"github.com/google/uuid"
)

// DeviceIDs is the stable device identity presented to Instagram. The same
// set must be reused across logins so the remote service sees one consistent
// device, including across a session refresh after expiry.
type DeviceIDs struct {
	PhoneID         string `json:"phone_id"`
	UUID            string `json:"uuid"`
	ClientSessionID string `json:"client_session_id"`
	AdvertisingID   string `json:"advertising_id"`
	AndroidDeviceID string `json:"android_device_id"`
}

// Empty reports whether no identifier has been generated yet.
func (d DeviceIDs) Empty() bool {
	return d.PhoneID == "" && d.UUID == "" && d.ClientSessionID == "" &&
		d.AdvertisingID == "" && d.AndroidDeviceID == ""
}

// NewDeviceIDs generates a fresh device identity.
func NewDeviceIDs() DeviceIDs {
	return DeviceIDs{
		PhoneID:         uuid.NewString(),
		UUID:            uuid.NewString(),
		ClientSessionID: uuid.NewString(),
		AdvertisingID:   uuid.NewString(),
		AndroidDeviceID: androidDeviceID(),
	}
}

func androidDeviceID() string {
	// Android device ids are 16 hex chars prefixed with "android-".
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "android-" + raw[:16]
}

// Settings is the persisted session blob: device identity plus the opaque
// authentication state captured after a successful login. It is the only
// cross-run state this system keeps and never contains the account password.
type Settings struct {
	UUIDs          DeviceIDs         `json:"uuids"`
	Cookies        map[string]string `json:"cookies,omitempty"`
	Authorization  string            `json:"authorization,omitempty"`
	UserAgent      string            `json:"user_agent,omitempty"`
	Locale         string            `json:"locale,omitempty"`
	Country        string            `json:"country,omitempty"`
	CountryCode    int               `json:"country_code,omitempty"`
	TimezoneOffset int               `json:"timezone_offset,omitempty"`
	DeviceSettings map[string]any    `json:"device_settings,omitempty"`
}

// Authenticated reports whether the blob carries login state worth reusing.
func (s Settings) Authenticated() bool {
	return s.Authorization != "" || len(s.Cookies) > 0
}
