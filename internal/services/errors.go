package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classifying run failures. Every stage error is tagged with
// one of these markers so main can report a precise failure class and tests
// can assert on propagation paths.
var (
	// ErrConfiguration marks missing or malformed configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrAuth marks an authentication failure after every login path was
	// exhausted. Always fatal; an unauthenticated client is never handed
	// to later stages.
	ErrAuth = errors.New("authentication failed")
	// ErrNoContent marks a run with zero stories to merge. Nothing is
	// uploaded or emailed.
	ErrNoContent = errors.New("no stories available")
	// ErrDownload marks a failed story download. A single failure aborts
	// the run.
	ErrDownload = errors.New("story download failed")
	// ErrExternalTool marks an ffmpeg/ffprobe invocation failure.
	ErrExternalTool = errors.New("external tool error")
	// ErrUpload marks an object storage failure. Fatal, no retry.
	ErrUpload = errors.New("upload failed")
	// ErrMail marks an SMTP transport or auth failure. Fatal, no retry.
	ErrMail = errors.New("mail delivery failed")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification.
func Wrap(marker error, stage, operation string, err error) error {
	detail := buildDetail(stage, operation)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation string) string {
	parts := make([]string, 0, 2)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if len(parts) == 0 {
		return "stage failure"
	}
	return strings.Join(parts, ": ")
}
