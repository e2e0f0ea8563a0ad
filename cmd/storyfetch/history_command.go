package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"storyfetch/internal/runlog"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent archival runs, or one run in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureStateDir(); err != nil {
				return err
			}
			store, err := runlog.Open(cfg.StateDir)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid run id %q", args[0])
				}
				return showRunDetail(cmd, store, id)
			}
			return showRecentRuns(cmd, store, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func showRecentRuns(cmd *cobra.Command, store *runlog.Store, limit int) error {
	runs, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("read run history: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
		return nil
	}

	headers := []string{"ID", "Date", "Status", "Stage", "Clips", "Object", "Started", "Error"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			strconv.FormatInt(run.ID, 10),
			run.TargetDate,
			string(run.Status),
			run.Stage,
			strconv.Itoa(run.ClipCount),
			run.ObjectKey,
			formatRunTime(run.StartedAt),
			truncate(run.Error, 60),
		})
	}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	return nil
}

func showRunDetail(cmd *cobra.Command, store *runlog.Store, id int64) error {
	run, err := store.GetByID(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %d\n", run.ID)
	fmt.Fprintf(out, "Date:     %s\n", run.TargetDate)
	fmt.Fprintf(out, "Status:   %s\n", run.Status)
	fmt.Fprintf(out, "Stage:    %s\n", run.Stage)
	fmt.Fprintf(out, "Clips:    %d\n", run.ClipCount)
	if run.ObjectKey != "" {
		fmt.Fprintf(out, "Object:   %s\n", run.ObjectKey)
	}
	fmt.Fprintf(out, "Started:  %s\n", formatRunTime(run.StartedAt))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(out, "Finished: %s\n", formatRunTime(run.FinishedAt))
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", run.Error)
	}
	return nil
}

func formatRunTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Local().Format("2006-01-02 15:04")
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
