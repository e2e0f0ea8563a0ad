package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"storyfetch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Account = config.Account{Username: "tester", Password: "secret"}
	cfgVal.UserID = 42
	cfgVal.SessionFile = filepath.Join(base, "state", "session.json")
	cfgVal.StateDir = filepath.Join(base, "state")
	cfgVal.S3 = config.S3{
		RegionName:      "us-east-1",
		EndpointURL:     "https://s3.test.invalid",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		BucketName:      "stories",
		BucketFolder:    "archive",
	}
	cfgVal.Email = config.Email{
		FromAddress: "stories@example.com",
		MailingList: []string{"alice@example.com"},
	}
	cfgVal.SMTP = config.SMTP{
		Host:     "smtp.example.com",
		Port:     465,
		Username: "stories@example.com",
		Password: "secret",
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := os.MkdirAll(builder.cfg.StateDir, 0o755); err != nil {
		t.Fatalf("mkdir state dir: %v", err)
	}

	return builder.cfg
}

// WithAccount overrides the Instagram credentials on the test config.
func WithAccount(username, password string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Account = config.Account{Username: username, Password: password}
	}
}

// WithMailingList overrides the notification recipients on the test config.
func WithMailingList(addrs ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Email.MailingList = addrs
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.StateDir)
}
