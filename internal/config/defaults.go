package config

const (
	defaultSessionFile        = "/var/lib/ig-story-fetcher/session.json"
	defaultStateDir           = "/var/lib/ig-story-fetcher"
	defaultLogFormat          = ""
	defaultLogLevel           = "info"
	defaultNtfyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		SessionFile: defaultSessionFile,
		StateDir:    defaultStateDir,
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Ntfy: Ntfy{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
	}
}
