// Package config loads, normalizes, and validates storyfetch configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads the TOML file named on the command line. The Config
// type centralizes every knob the pipeline needs: Instagram credentials and
// client tuning, the session blob location, object storage settings, and the
// mail transport.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors before any side effect occurs.
package config
