// Package pipeline orchestrates the daily archival run. It serializes
// concurrent invocations with a file lock, drives the stage sequence
// (authenticate, harvest, merge, publish, notify), records run history,
// and cleans up the scratch workspace on every exit path.
package pipeline
