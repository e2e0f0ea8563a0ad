package runlog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storyfetch/internal/runlog"
)

func openStore(t *testing.T) *runlog.Store {
	t.Helper()
	store, err := runlog.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("Close returned error: %v", err)
		}
	})
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	id, err := store.Begin(ctx, date)
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}

	for _, stage := range []string{runlog.StageHarvest, runlog.StageMerge, runlog.StagePublish} {
		if err := store.SetStage(ctx, id, stage); err != nil {
			t.Fatalf("SetStage(%s) returned error: %v", stage, err)
		}
	}

	if err := store.Finish(ctx, id, runlog.Outcome{
		Status:    runlog.StatusCompleted,
		ClipCount: 3,
		ObjectKey: "daily/2024-03-01.mp4",
	}); err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}

	run, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if run.Status != runlog.StatusCompleted {
		t.Fatalf("unexpected status %q", run.Status)
	}
	if run.Stage != runlog.StagePublish {
		t.Fatalf("unexpected stage %q", run.Stage)
	}
	if run.ClipCount != 3 || run.ObjectKey != "daily/2024-03-01.mp4" {
		t.Fatalf("unexpected run fields %+v", run)
	}
	if run.TargetDate != "2024-03-01" {
		t.Fatalf("unexpected target date %q", run.TargetDate)
	}
	if run.FinishedAt.IsZero() || run.StartedAt.IsZero() {
		t.Fatalf("timestamps not recorded: %+v", run)
	}
}

func TestFinishRecordsFailure(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.Begin(ctx, time.Now())
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if err := store.Finish(ctx, id, runlog.Outcome{
		Status: runlog.StatusFailed,
		Err:    errors.New("upload failed: 503"),
	}); err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}

	run, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if run.Status != runlog.StatusFailed {
		t.Fatalf("unexpected status %q", run.Status)
	}
	if run.Error != "upload failed: 503" {
		t.Fatalf("unexpected error text %q", run.Error)
	}
}

func TestRecentReturnsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	var ids []int64
	for day := 1; day <= 3; day++ {
		id, err := store.Begin(ctx, time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("Begin returned error: %v", err)
		}
		ids = append(ids, id)
	}

	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected limit applied, got %d runs", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Fatalf("expected newest first, got ids %d, %d", runs[0].ID, runs[1].ID)
	}
}

func TestGetByIDMissingRun(t *testing.T) {
	store := openStore(t)
	if _, err := store.GetByID(context.Background(), 9999); err == nil {
		t.Fatal("expected error for missing run")
	}
}
