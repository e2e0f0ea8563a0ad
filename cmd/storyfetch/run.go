package main

import (
	"context"
	"fmt"
	"log/slog"

	"storyfetch/internal/auth"
	"storyfetch/internal/config"
	"storyfetch/internal/deps"
	"storyfetch/internal/harvest"
	"storyfetch/internal/instagram"
	"storyfetch/internal/mailer"
	"storyfetch/internal/merge"
	"storyfetch/internal/notifications"
	"storyfetch/internal/pipeline"
	"storyfetch/internal/runlog"
	"storyfetch/internal/services"
	"storyfetch/internal/session"
	"storyfetch/internal/storage"
)

// runPipeline wires the stage implementations together and executes one
// archival run.
func runPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := deps.Verify(); err != nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "verify external tools", err)
	}
	if err := cfg.EnsureStateDir(); err != nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "prepare state directory", err)
	}

	client := instagram.New()
	if err := applyClientSettings(client, cfg.ClientSettings); err != nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "apply client settings", err)
	}

	mailNotifier, err := mailer.New(cfg.Email, cfg.SMTP, logger)
	if err != nil {
		return err
	}

	runs, err := runlog.Open(cfg.StateDir)
	if err != nil {
		// History is observability only; a broken database never blocks
		// the archival run.
		logger.Warn("run history unavailable", "error", err)
	} else {
		defer runs.Close()
	}

	p := pipeline.New(cfg, pipeline.Components{
		Auth:    auth.New(client, session.NewStore(cfg.SessionFile), logger),
		Harvest: harvest.New(client, logger),
		Merge:   merge.New(cfg.FFmpegBinary(), cfg.FFprobeBinary(), logger),
		Publish: storage.New(cfg.S3, logger),
		Mail:    mailNotifier,
		Push:    notifications.NewService(cfg.Ntfy),
		Runs:    runs,
	}, logger)
	return p.Run(ctx)
}

// applyClientSettings maps each configured tuning field to one client call,
// skipping zero values.
func applyClientSettings(client *instagram.Client, settings config.ClientSettings) error {
	if settings.Locale != "" {
		client.SetLocale(settings.Locale)
	}
	if settings.Country != "" {
		client.SetCountry(settings.Country)
	}
	if settings.CountryCode != 0 {
		client.SetCountryCode(settings.CountryCode)
	}
	if settings.TimezoneOffset != 0 {
		client.SetTimezoneOffset(settings.TimezoneOffset)
	}
	if len(settings.Device) > 0 {
		client.SetDevice(settings.Device)
	}
	if settings.UserAgent != "" {
		client.SetUserAgent(settings.UserAgent)
	}
	if settings.Proxy != "" {
		if err := client.SetProxy(settings.Proxy); err != nil {
			return fmt.Errorf("configure proxy: %w", err)
		}
	}
	return nil
}
