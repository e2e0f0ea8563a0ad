package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Account holds the Instagram credentials used for password logins.
type Account struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// ClientSettings contains optional Instagram client tuning. Each non-zero
// field maps to one client-configuration call applied before login.
type ClientSettings struct {
	Locale         string         `toml:"locale"`
	Country        string         `toml:"country"`
	CountryCode    int            `toml:"country_code"`
	TimezoneOffset int            `toml:"timezone_offset"`
	Device         map[string]any `toml:"device"`
	UserAgent      string         `toml:"user_agent"`
	Proxy          string         `toml:"proxy"`
}

// S3 contains object storage connection and layout settings.
type S3 struct {
	RegionName      string `toml:"region_name"`
	EndpointURL     string `toml:"endpoint_url"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	BucketName      string `toml:"bucket_name"`
	BucketFolder    string `toml:"bucket_folder"`
}

// Email contains the sender address and the mailing list.
type Email struct {
	FromAddress string   `toml:"from_address"`
	MailingList []string `toml:"mailing_list"`
}

// SMTP contains the outbound mail transport settings. The connection uses
// implicit TLS on the configured port.
type SMTP struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Ntfy contains optional push notification settings for run outcomes.
type Ntfy struct {
	Topic          string `toml:"topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Config encapsulates all configuration values for storyfetch.
//
// Sections by subsystem:
//   - Account: Instagram login credentials
//   - ClientSettings: per-device Instagram client tuning
//   - S3: object storage upload target and signing credentials
//   - Email/SMTP: notification recipients and mail transport
//   - Logging: log format and level
//   - Ntfy: optional push notifications for run outcomes
type Config struct {
	Account        Account        `toml:"ig_account"`
	SessionFile    string         `toml:"session_file"`
	StateDir       string         `toml:"state_dir"`
	UserID         int64          `toml:"ig_user_id"`
	ClientSettings ClientSettings `toml:"instagrapi_settings"`
	S3             S3             `toml:"s3"`
	Email          Email          `toml:"email"`
	SMTP           SMTP           `toml:"smtp"`
	Logging        Logging        `toml:"logging"`
	Ntfy           Ntfy           `toml:"ntfy"`
}

// Load parses and validates the configuration file at path. The returned
// config has all path fields expanded and defaults applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	expanded, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(expanded)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) normalize() error {
	var err error
	if c.SessionFile, err = expandPath(strings.TrimSpace(c.SessionFile)); err != nil {
		return err
	}
	if c.StateDir, err = expandPath(strings.TrimSpace(c.StateDir)); err != nil {
		return err
	}
	c.Account.Username = strings.TrimSpace(c.Account.Username)
	c.Email.FromAddress = strings.TrimSpace(c.Email.FromAddress)
	for i, addr := range c.Email.MailingList {
		c.Email.MailingList[i] = strings.TrimSpace(addr)
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.S3.BucketFolder = strings.Trim(strings.TrimSpace(c.S3.BucketFolder), "/")
	return nil
}

// EnsureStateDir creates the directory holding the run lock and history.
func (c *Config) EnsureStateDir() error {
	if err := os.MkdirAll(c.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state directory %q: %w", c.StateDir, err)
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for concatenation.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
