package instagram

import (
	"errors"
	"time"
)

// ErrLoginRequired signals that the current session is no longer accepted
// and a fresh password login is needed.
var ErrLoginRequired = errors.New("instagram: login required")

// ErrBadCredentials signals a rejected username/password pair.
var ErrBadCredentials = errors.New("instagram: bad credentials")

// Story is one ephemeral media item from the target account's current reel.
type Story struct {
	PK       string
	TakenAt  time.Time
	VideoURL string
}

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type loginResponse struct {
	apiResponse
	LoggedInUser struct {
		PK       int64  `json:"pk"`
		Username string `json:"username"`
	} `json:"logged_in_user"`
}

type reelResponse struct {
	apiResponse
	Reel struct {
		Items []reelItem `json:"items"`
	} `json:"reel"`
}

type reelItem struct {
	PK            int64  `json:"pk"`
	ID            string `json:"id"`
	TakenAt       int64  `json:"taken_at"`
	MediaType     int    `json:"media_type"`
	VideoVersions []struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"video_versions"`
}
