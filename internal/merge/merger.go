package merge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"storyfetch/internal/harvest"
	"storyfetch/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// Option configures the merger.
type Option func(*Merger)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(m *Merger) {
		if exec != nil {
			m.exec = exec
		}
	}
}

// Result describes the merged output.
type Result struct {
	Path     string
	Clips    int
	Duration time.Duration
}

// Merger concatenates harvested clips into one video via ffmpeg.
type Merger struct {
	ffmpeg  string
	ffprobe string
	exec    Executor
	logger  *slog.Logger
}

// New constructs a merger around the given ffmpeg/ffprobe binaries.
func New(ffmpeg, ffprobe string, logger *slog.Logger, opts ...Option) *Merger {
	merger := &Merger{
		ffmpeg:  ffmpeg,
		ffprobe: ffprobe,
		exec:    commandExecutor{},
		logger:  logger.With("component", "merger"),
	}
	for _, opt := range opts {
		opt(merger)
	}
	return merger
}

// Merge concatenates every clip in scratchDir, sorted by filename, into
// outputPath. Clip durations and frame order are preserved; there are no
// transitions. Zero clips is an explicit error, never an empty output file.
func (m *Merger) Merge(ctx context.Context, scratchDir, outputPath string) (Result, error) {
	clips, err := listClips(scratchDir, outputPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "merge", "list clips", err)
	}
	if len(clips) == 0 {
		return Result{}, services.Wrap(services.ErrNoContent, "merge", "no clips to merge", nil)
	}

	listPath := filepath.Join(scratchDir, "concat.txt")
	if err := writeConcatList(listPath, clips); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "merge", "write concat list", err)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", outputPath,
	}
	m.logger.Info("concatenating clips", "clips", len(clips), "output", filepath.Base(outputPath))
	if err := m.exec.Run(ctx, m.ffmpeg, args, nil); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "merge", "ffmpeg concat", err)
	}

	result := Result{Path: outputPath, Clips: len(clips)}
	if duration, err := m.probeDuration(ctx, outputPath); err != nil {
		m.logger.Warn("could not measure merged duration", "error", err)
	} else {
		result.Duration = duration
	}
	return result, nil
}

func (m *Merger) probeDuration(ctx context.Context, path string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	var output strings.Builder
	if err := m.exec.Run(ctx, m.ffprobe, args, func(line string) {
		output.WriteString(line)
	}); err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(output.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", output.String(), err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// listClips returns the clip files in ascending filename order, which by the
// harvester's naming scheme is chronological order.
func listClips(scratchDir, outputPath string) ([]string, error) {
	entries, err := filepath.Glob(filepath.Join(scratchDir, "*"+harvest.ClipExtension))
	if err != nil {
		return nil, err
	}

	clips := entries[:0]
	for _, entry := range entries {
		if entry == outputPath {
			continue
		}
		clips = append(clips, entry)
	}
	sort.Strings(clips)
	return clips, nil
}

func writeConcatList(path string, clips []string) error {
	var buf strings.Builder
	for _, clip := range clips {
		// Single quotes inside a quoted concat entry are closed, escaped,
		// and reopened per ffmpeg's quoting rules.
		escaped := strings.ReplaceAll(clip, "'", `'\''`)
		fmt.Fprintf(&buf, "file '%s'\n", escaped)
	}
	return os.WriteFile(path, []byte(buf.String()), 0o644)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if onStdout != nil {
				onStdout(scanner.Text())
			}
		}
		if err := scanner.Err(); err != nil && err != io.EOF {
			scanErr = err
		}
	}()

	// The pipe must be fully drained before Wait closes it.
	wg.Wait()
	waitErr := cmd.Wait()

	if waitErr != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return fmt.Errorf("%s: %w: %s", binary, waitErr, detail)
		}
		return fmt.Errorf("%s: %w", binary, waitErr)
	}
	return scanErr
}
