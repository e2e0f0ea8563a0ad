package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"storyfetch/internal/auth"
	"storyfetch/internal/config"
	"storyfetch/internal/harvest"
	"storyfetch/internal/merge"
	"storyfetch/internal/notifications"
	"storyfetch/internal/runlog"
	"storyfetch/internal/services"
	"storyfetch/internal/storage"
)

// ErrAlreadyRunning reports that another process holds the run lock. The
// pipeline never queues behind a running instance; overlapping invocations
// fail fast.
var ErrAlreadyRunning = errors.New("another run is already in progress")

// Authenticator establishes an authenticated Instagram client.
type Authenticator interface {
	Authenticate(ctx context.Context, creds auth.Credentials) error
}

// Harvester downloads story clips for the target date into a scratch
// directory and reports how many were written.
type Harvester interface {
	Harvest(ctx context.Context, userID int64, scratchDir string) (int, error)
}

// Merger concatenates the harvested clips into a single video.
type Merger interface {
	Merge(ctx context.Context, scratchDir, outputPath string) (merge.Result, error)
}

// Publisher uploads the merged video and mints a signed retrieval URL.
type Publisher interface {
	Publish(ctx context.Context, videoPath string, date time.Time) (storage.Artifact, error)
}

// Mailer delivers the signed URL to the mailing list.
type Mailer interface {
	Notify(ctx context.Context, signedURL string, date time.Time) error
}

// Components bundles the stage implementations a pipeline drives. Push and
// Runs are optional; a nil Runs skips history recording.
type Components struct {
	Auth    Authenticator
	Harvest Harvester
	Merge   Merger
	Publish Publisher
	Mail    Mailer
	Push    notifications.Service
	Runs    *runlog.Store
}

// Option adjusts pipeline construction.
type Option func(*Pipeline)

// WithClock overrides the time source. Tests use it to pin the target date.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// Pipeline runs the daily story archival sequence: authenticate, harvest,
// merge, publish, notify. Stages run strictly in order and the first
// failure aborts the run.
type Pipeline struct {
	cfg    *config.Config
	comps  Components
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a pipeline over the provided components.
func New(cfg *config.Config, comps Components, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		comps:  comps,
		logger: logger.With("component", "pipeline"),
		now:    time.Now,
	}
	if comps.Push == nil {
		p.comps.Push = notifications.NewService(config.Ntfy{})
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one archival pass for yesterday's stories. The run holds an
// exclusive file lock for its whole duration so overlapping schedules
// cannot interleave partial artifacts.
func (p *Pipeline) Run(ctx context.Context) error {
	lock := flock.New(filepath.Join(p.cfg.StateDir, "run.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return ErrAlreadyRunning
	}
	defer lock.Unlock()

	started := p.now()
	targetDate := started.AddDate(0, 0, -1)
	p.logger.Info("run started", "target_date", targetDate.Format("2006-01-02"))

	runID := p.beginRun(ctx, targetDate)

	scratchDir, err := os.MkdirTemp("", "storyfetch-*")
	if err != nil {
		err = fmt.Errorf("create scratch directory: %w", err)
		p.finishRun(ctx, runID, runlog.Outcome{Status: runlog.StatusFailed, Err: err})
		return err
	}
	defer os.RemoveAll(scratchDir)

	result, artifact, err := p.execute(ctx, runID, targetDate, scratchDir)
	switch {
	case errors.Is(err, services.ErrNoContent):
		// Fatal like any other stage failure; the exit status tells the
		// cron consumer nothing was archived. Recorded separately so
		// history distinguishes an empty day from a broken run.
		p.logger.Info("no stories for target date, nothing to publish",
			"target_date", targetDate.Format("2006-01-02"))
		p.finishRun(ctx, runID, runlog.Outcome{Status: runlog.StatusNoContent, Err: err})
		return err
	case err != nil:
		p.finishRun(ctx, runID, runlog.Outcome{Status: runlog.StatusFailed, Err: err})
		if pushErr := p.comps.Push.NotifyRunFailed(ctx, targetDate, err); pushErr != nil {
			p.logger.Warn("push notification failed", "error", pushErr)
		}
		return err
	}

	p.finishRun(ctx, runID, runlog.Outcome{
		Status:    runlog.StatusCompleted,
		ClipCount: result.Clips,
		ObjectKey: artifact.Key,
	})
	if pushErr := p.comps.Push.NotifyRunCompleted(ctx, targetDate, result.Clips, result.Duration); pushErr != nil {
		p.logger.Warn("push notification failed", "error", pushErr)
	}
	p.logger.Info("run completed",
		"target_date", targetDate.Format("2006-01-02"),
		"clips", result.Clips,
		"object_key", artifact.Key,
		"elapsed", p.now().Sub(started).Round(time.Millisecond))
	return nil
}

func (p *Pipeline) execute(ctx context.Context, runID int64, targetDate time.Time, scratchDir string) (merge.Result, storage.Artifact, error) {
	var (
		result   merge.Result
		artifact storage.Artifact
	)

	p.setStage(ctx, runID, runlog.StageAuth)
	creds := auth.Credentials{
		Username: p.cfg.Account.Username,
		Password: p.cfg.Account.Password,
	}
	if err := p.comps.Auth.Authenticate(ctx, creds); err != nil {
		return result, artifact, err
	}

	p.setStage(ctx, runID, runlog.StageHarvest)
	clips, err := p.comps.Harvest.Harvest(ctx, p.cfg.UserID, scratchDir)
	if err != nil {
		return result, artifact, err
	}
	p.logger.Info("stories downloaded", "clips", clips)

	p.setStage(ctx, runID, runlog.StageMerge)
	outputPath := filepath.Join(scratchDir, targetDate.Format("2006-01-02")+harvest.ClipExtension)
	result, err = p.comps.Merge.Merge(ctx, scratchDir, outputPath)
	if err != nil {
		return result, artifact, err
	}

	p.setStage(ctx, runID, runlog.StagePublish)
	artifact, err = p.comps.Publish.Publish(ctx, result.Path, targetDate)
	if err != nil {
		return result, artifact, err
	}

	p.setStage(ctx, runID, runlog.StageNotify)
	if err := p.comps.Mail.Notify(ctx, artifact.SignedURL, targetDate); err != nil {
		return result, artifact, err
	}

	p.setStage(ctx, runID, runlog.StageDone)
	return result, artifact, nil
}

func (p *Pipeline) beginRun(ctx context.Context, targetDate time.Time) int64 {
	if p.comps.Runs == nil {
		return 0
	}
	id, err := p.comps.Runs.Begin(ctx, targetDate)
	if err != nil {
		p.logger.Warn("recording run start failed", "error", err)
		return 0
	}
	return id
}

func (p *Pipeline) setStage(ctx context.Context, runID int64, stage string) {
	if p.comps.Runs == nil || runID == 0 {
		return
	}
	if err := p.comps.Runs.SetStage(ctx, runID, stage); err != nil {
		p.logger.Warn("recording run stage failed", "stage", stage, "error", err)
	}
}

func (p *Pipeline) finishRun(ctx context.Context, runID int64, outcome runlog.Outcome) {
	if p.comps.Runs == nil || runID == 0 {
		return
	}
	if err := p.comps.Runs.Finish(ctx, runID, outcome); err != nil {
		p.logger.Warn("recording run outcome failed", "error", err)
	}
}
