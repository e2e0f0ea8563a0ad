package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"storyfetch/internal/config"
	"storyfetch/internal/runlog"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	content := fmt.Sprintf(`ig_user_id = 42
session_file = %q
state_dir = %q

[ig_account]
username = "tester"
password = "secret"

[s3]
region_name = "us-east-1"
endpoint_url = "https://s3.test.invalid"
access_key_id = "test"
secret_access_key = "test"
bucket_name = "stories"
bucket_folder = "archive"

[email]
from_address = "stories@example.com"
mailing_list = ["alice@example.com"]

[smtp]
host = "smtp.example.com"
port = 465
username = "stories@example.com"
password = "secret"
`, filepath.Join(base, "state", "session.json"), filepath.Join(base, "state"))

	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootRequiresConfigPath(t *testing.T) {
	_, err := execute(t, "history")
	if err == nil {
		t.Fatal("expected an error without a config path")
	}
	if !strings.Contains(err.Error(), "configuration file path") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "conf", "storyfetch.toml")

	out, err := execute(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output does not mention target path: %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[ig_account]") {
		t.Fatalf("sample config missing account section:\n%s", data)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "storyfetch.toml")
	if _, err := execute(t, "config", "init", "--path", target); err != nil {
		t.Fatalf("first init failed: %v", err)
	}

	if _, err := execute(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init should refuse to overwrite")
	}

	if _, err := execute(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init with --overwrite failed: %v", err)
	}
}

func TestConfigShowSummarizes(t *testing.T) {
	path := writeTestConfig(t)

	out, err := execute(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	for _, want := range []string{"Configuration valid", "tester", "stories/archive", "smtp.example.com:465"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigShowRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("ig_user_id = 42\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := execute(t, "--config", path, "config", "show"); err == nil {
		t.Fatal("expected validation failure for incomplete config")
	}
}

func TestHistoryWithEmptyState(t *testing.T) {
	path := writeTestConfig(t)

	out, err := execute(t, "--config", path, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "No runs recorded yet") {
		t.Fatalf("unexpected history output:\n%s", out)
	}
}

func TestHistoryShowsRunDetail(t *testing.T) {
	path := writeTestConfig(t)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureStateDir(); err != nil {
		t.Fatalf("ensure state dir: %v", err)
	}

	store, err := runlog.Open(cfg.StateDir)
	if err != nil {
		t.Fatalf("open runlog: %v", err)
	}
	id, err := store.Begin(context.Background(), time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}
	err = store.Finish(context.Background(), id, runlog.Outcome{
		Status:    runlog.StatusCompleted,
		ClipCount: 3,
		ObjectKey: "archive/2024-03-14.mp4",
	})
	if err != nil {
		t.Fatalf("finish run: %v", err)
	}
	store.Close()

	out, err := execute(t, "--config", path, "history", strconv.FormatInt(id, 10))
	if err != nil {
		t.Fatalf("history detail failed: %v", err)
	}
	for _, want := range []string{"2024-03-14", "completed", "archive/2024-03-14.mp4"} {
		if !strings.Contains(out, want) {
			t.Fatalf("detail output missing %q:\n%s", want, out)
		}
	}
}

func TestHistoryRejectsUnknownRun(t *testing.T) {
	path := writeTestConfig(t)

	if _, err := execute(t, "--config", path, "history", "999"); err == nil {
		t.Fatal("expected an error for an unknown run id")
	}
	if _, err := execute(t, "--config", path, "history", "not-a-number"); err == nil {
		t.Fatal("expected an error for a malformed run id")
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	cmd := newRootCommand()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"history", "config"} {
		if !names[want] {
			t.Fatalf("missing subcommand %q (have %v)", want, names)
		}
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a very long error message", 10, "a very ..."},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.max); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}
