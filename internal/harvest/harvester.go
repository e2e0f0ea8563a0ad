package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"storyfetch/internal/instagram"
	"storyfetch/internal/services"
)

// ClipExtension is the media extension shared by harvested clips and the
// merged output.
const ClipExtension = ".mp4"

// Downloader is the story surface the harvester drives.
type Downloader interface {
	UserStories(ctx context.Context, userID int64) ([]instagram.Story, error)
	DownloadStory(ctx context.Context, story instagram.Story, path string) error
}

// Harvester downloads the target account's current stories into a scratch
// directory.
type Harvester struct {
	client Downloader
	logger *slog.Logger
}

// New constructs a harvester.
func New(client Downloader, logger *slog.Logger) *Harvester {
	return &Harvester{
		client: client,
		logger: logger.With("component", "harvester"),
	}
}

// Harvest lists the account's stories and downloads each clip into
// scratchDir under a capture-timestamp filename, so lexicographic filename
// order equals chronological order. Listing order is irrelevant.
//
// Zero stories yields ErrNoContent. A single failed download aborts the
// harvest with ErrDownload; a partial archive is never merged.
func (h *Harvester) Harvest(ctx context.Context, userID int64, scratchDir string) (int, error) {
	stories, err := h.client.UserStories(ctx, userID)
	if err != nil {
		return 0, services.Wrap(services.ErrDownload, "harvest", "list stories", err)
	}
	if len(stories) == 0 {
		return 0, services.Wrap(services.ErrNoContent, "harvest", "list stories", nil)
	}

	h.logger.Info("downloading stories", "count", len(stories))
	for _, story := range stories {
		name := ClipFileName(story.TakenAt)
		path := filepath.Join(scratchDir, name)
		if _, statErr := os.Stat(path); statErr == nil {
			// The feed carries whole-second capture timestamps, so two
			// stories can collide on a name. Suffix the story id rather
			// than silently overwriting the earlier clip.
			name = clipFileNameWithID(story.TakenAt, story.PK)
			path = filepath.Join(scratchDir, name)
		}
		if err := h.client.DownloadStory(ctx, story, path); err != nil {
			return 0, services.Wrap(services.ErrDownload, "harvest", fmt.Sprintf("download story %s", story.PK), err)
		}
		h.logger.Debug("downloaded story", "story", story.PK, "clip", name)
	}
	return len(stories), nil
}

// ClipFileName encodes a capture timestamp as a fixed-width, zero-padded
// UTC filename so string sort order equals chronological order across any
// pair of timestamps, including month and year boundaries.
func ClipFileName(capturedAt time.Time) string {
	ts := capturedAt.UTC()
	return fmt.Sprintf("%s%06d%s", ts.Format("20060102150405"), ts.Nanosecond()/1000, ClipExtension)
}

// clipFileNameWithID appends the story id after the timestamp. Used only
// when two stories share a capture second; "_" sorts after "." so the
// unsuffixed clip keeps its place in the merge order.
func clipFileNameWithID(capturedAt time.Time, id string) string {
	ts := capturedAt.UTC()
	return fmt.Sprintf("%s%06d_%s%s", ts.Format("20060102150405"), ts.Nanosecond()/1000, id, ClipExtension)
}
