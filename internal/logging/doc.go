// Package logging assembles structured slog loggers and formatting helpers used
// across bookbinder.
//
// It owns the console and JSON handlers, fans records out to a terse stderr
// sink and a rotating log file, and exposes context-aware helpers so split
// and merge jobs automatically tag log lines with their job ID, kind, and
// source path. A no-op logger is provided for tests and wiring code that
// cannot fail.
package logging
