// Package logging assembles the structured slog loggers used across
// storyfetch components.
//
// It owns the console and JSON handlers, centralizes level plumbing, and
// auto-detects the output format from the terminal when none is configured.
// Loggers are passed explicitly into each component; nothing in this
// repository mutates the process-wide slog default.
package logging
