// Package main hosts the bookbinder CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into split and merge jobs
// run by internal/workflow, plus read-only helpers for probing a book,
// listing job history, checking dependencies and scaffolding configuration.
// Configuration and logger setup are centralized in commandContext so
// subcommands only deal with presentation.
package main
