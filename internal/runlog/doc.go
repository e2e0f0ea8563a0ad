// Package runlog persists a small SQLite history of pipeline runs: target
// date, stage reached, outcome, clip count, and object key. The CLI renders
// it; the pipeline only writes to it.
package runlog
