package deps_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyfetch/internal/deps"
)

func stubBinaries(t *testing.T, names ...string) {
	t.Helper()
	binDir := filepath.Join(t.TempDir(), "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	for _, name := range names {
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
	t.Setenv("PATH", binDir)
}

func TestCheckFindsStubbedBinary(t *testing.T) {
	stubBinaries(t, "ffmpeg")
	status := deps.FFmpeg()
	if !status.Available {
		t.Fatalf("expected ffmpeg available, got %+v", status)
	}
	if filepath.Base(status.Command) != "ffmpeg" {
		t.Fatalf("unexpected resolved command %q", status.Command)
	}
}

func TestCheckReportsMissingBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	status := deps.Check("definitely-not-here", "")
	if status.Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if !strings.Contains(status.Detail, "not found") {
		t.Fatalf("unexpected detail %q", status.Detail)
	}
}

func TestVerifyRequiresBothTools(t *testing.T) {
	stubBinaries(t, "ffmpeg")
	if err := deps.Verify(); err == nil {
		t.Fatal("expected Verify to fail without ffprobe")
	}

	stubBinaries(t, "ffmpeg", "ffprobe")
	if err := deps.Verify(); err != nil {
		t.Fatalf("Verify returned error with both tools stubbed: %v", err)
	}
}
