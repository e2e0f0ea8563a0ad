package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"storyfetch/internal/session"
)

const (
	defaultBaseURL   = "https://i.instagram.com/api/v1"
	defaultUserAgent = "Instagram 269.0.0.18.75 Android (30/11; 420dpi; 1080x2260; samsung; SM-G973F; beyond1; exynos9820; en_US; 314665256)"
	defaultAppID     = "567067343352427"

	mediaTypeVideo = 2
)

// HTTPDoer describes the HTTP client used for API and media requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP client (primarily for tests).
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithBaseURL overrides the API base URL (primarily for tests).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(base), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// Client talks to the Instagram private API. It carries the device identity
// and session state that together form the persisted session blob.
type Client struct {
	http     HTTPDoer
	ownHTTP  *http.Client
	baseURL  string
	settings session.Settings
}

// New constructs a client with a fresh device identity.
func New(opts ...Option) *Client {
	own := &http.Client{Timeout: 60 * time.Second}
	client := &Client{
		http:    own,
		ownHTTP: own,
		baseURL: defaultBaseURL,
		settings: session.Settings{
			UUIDs:     session.NewDeviceIDs(),
			Cookies:   map[string]string{},
			UserAgent: defaultUserAgent,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// ExportSettings returns a copy of the current session state.
func (c *Client) ExportSettings() session.Settings {
	settings := c.settings
	settings.Cookies = cloneCookies(c.settings.Cookies)
	return settings
}

// RestoreSettings replaces the session state wholesale. Missing device
// identifiers are regenerated so the client always presents a full identity.
func (c *Client) RestoreSettings(settings session.Settings) {
	if settings.Cookies == nil {
		settings.Cookies = map[string]string{}
	}
	if settings.UUIDs.Empty() {
		settings.UUIDs = session.NewDeviceIDs()
	}
	if settings.UserAgent == "" {
		settings.UserAgent = defaultUserAgent
	}
	c.settings = settings
}

// SetLocale sets the client locale (e.g. "en_US").
func (c *Client) SetLocale(locale string) {
	c.settings.Locale = locale
}

// SetCountry sets the client country (e.g. "US").
func (c *Client) SetCountry(country string) {
	c.settings.Country = country
}

// SetCountryCode sets the dialing country code.
func (c *Client) SetCountryCode(code int) {
	c.settings.CountryCode = code
}

// SetTimezoneOffset sets the device timezone offset in seconds.
func (c *Client) SetTimezoneOffset(offset int) {
	c.settings.TimezoneOffset = offset
}

// SetDevice replaces the reported device characteristics.
func (c *Client) SetDevice(device map[string]any) {
	c.settings.DeviceSettings = device
}

// SetUserAgent overrides the reported user agent.
func (c *Client) SetUserAgent(userAgent string) {
	if strings.TrimSpace(userAgent) != "" {
		c.settings.UserAgent = userAgent
	}
}

// SetProxy routes all traffic through the given proxy URL. Only applies to
// the client's own transport; injected HTTP clients manage their own proxy.
func (c *Client) SetProxy(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	proxyURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse proxy url: %w", err)
	}
	if c.ownHTTP != nil {
		c.ownHTTP.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	return nil
}

// Login performs a password login. On success the captured authorization
// token and cookies become part of the exportable session state.
func (c *Client) Login(ctx context.Context, username, password string) error {
	payload := map[string]any{
		"username":            username,
		"password":            password,
		"guid":                c.settings.UUIDs.UUID,
		"phone_id":            c.settings.UUIDs.PhoneID,
		"device_id":           c.settings.UUIDs.AndroidDeviceID,
		"adid":                c.settings.UUIDs.AdvertisingID,
		"login_attempt_count": "0",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode login payload: %w", err)
	}

	form := url.Values{}
	form.Set("signed_body", "SIGNATURE."+string(body))

	resp, err := c.request(ctx, http.MethodPost, "/accounts/login/", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.absorbResponseState(resp)

	var result loginResponse
	if err := decodeAPIBody(resp, &result); err != nil {
		return err
	}
	if result.Status != "ok" {
		if strings.Contains(result.Message, "password") || strings.Contains(result.Message, "credentials") {
			return fmt.Errorf("%w: %s", ErrBadCredentials, result.Message)
		}
		return fmt.Errorf("instagram: login rejected: %s", result.Message)
	}
	return nil
}

// Probe performs a lightweight authenticated request to verify the session.
// Returns ErrLoginRequired when the session is no longer accepted.
func (c *Client) Probe(ctx context.Context) error {
	resp, err := c.request(ctx, http.MethodGet, "/feed/timeline/", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result apiResponse
	if err := decodeAPIBody(resp, &result); err != nil {
		return err
	}
	if result.Status != "ok" {
		return fmt.Errorf("instagram: timeline probe failed: %s", result.Message)
	}
	return nil
}

// UserStories lists the account's current story reel. Photo items carry no
// video rendition and are skipped.
func (c *Client) UserStories(ctx context.Context, userID int64) ([]Story, error) {
	path := fmt.Sprintf("/feed/user/%d/story/", userID)
	resp, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result reelResponse
	if err := decodeAPIBody(resp, &result); err != nil {
		return nil, err
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("instagram: story listing failed: %s", result.Message)
	}

	stories := make([]Story, 0, len(result.Reel.Items))
	for _, item := range result.Reel.Items {
		if item.MediaType != mediaTypeVideo || len(item.VideoVersions) == 0 {
			continue
		}
		pk := item.ID
		if pk == "" {
			pk = strconv.FormatInt(item.PK, 10)
		}
		stories = append(stories, Story{
			PK:       pk,
			TakenAt:  time.Unix(item.TakenAt, 0).UTC(),
			VideoURL: item.VideoVersions[0].URL,
		})
	}
	return stories, nil
}

// DownloadStory streams one story's media to the given path.
func (c *Client) DownloadStory(ctx context.Context, story Story, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, story.VideoURL, nil)
	if err != nil {
		return fmt.Errorf("build media request: %w", err)
	}
	req.Header.Set("User-Agent", c.settings.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch media: unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create clip file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write clip file: %w", err)
	}
	return out.Close()
}

func (c *Client) request(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}

	req.Header.Set("User-Agent", c.settings.UserAgent)
	req.Header.Set("X-IG-App-ID", defaultAppID)
	req.Header.Set("X-IG-Device-ID", c.settings.UUIDs.UUID)
	req.Header.Set("X-IG-Android-ID", c.settings.UUIDs.AndroidDeviceID)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	}
	if c.settings.Locale != "" {
		req.Header.Set("X-IG-App-Locale", c.settings.Locale)
		req.Header.Set("Accept-Language", strings.ReplaceAll(c.settings.Locale, "_", "-"))
	}
	if c.settings.TimezoneOffset != 0 {
		req.Header.Set("X-IG-Timezone-Offset", strconv.Itoa(c.settings.TimezoneOffset))
	}
	if c.settings.Authorization != "" {
		req.Header.Set("Authorization", c.settings.Authorization)
	}
	for name, value := range c.settings.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	return resp, nil
}

// absorbResponseState captures rotated cookies and authorization headers.
func (c *Client) absorbResponseState(resp *http.Response) {
	if auth := resp.Header.Get("Ig-Set-Authorization"); auth != "" {
		c.settings.Authorization = auth
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Value == "" {
			delete(c.settings.Cookies, cookie.Name)
			continue
		}
		c.settings.Cookies[cookie.Name] = cookie.Value
	}
}

func decodeAPIBody(resp *http.Response, target any) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var status apiResponse
	if err := json.Unmarshal(data, &status); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("instagram: unexpected status %d", resp.StatusCode)
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if status.Message == "login_required" {
		return ErrLoginRequired
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func cloneCookies(cookies map[string]string) map[string]string {
	clone := make(map[string]string, len(cookies))
	for name, value := range cookies {
		clone[name] = value
	}
	return clone
}
