// Package main hosts the storyfetch CLI entrypoint and command graph.
//
// The bare invocation `storyfetch <config.toml>` runs one archival pass:
// authenticate, download yesterday's stories, merge, upload, email the
// signed URL. Subcommands cover run history and configuration scaffolding.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
