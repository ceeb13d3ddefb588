// Package logging assembles structured slog loggers and formatting helpers used
// across o3enc components.
//
// It owns the console and JSON handlers, writes every record to stderr and to
// the per-run log file, and exposes context-aware helpers so pipeline code can
// tag log lines with the run ID and active preset. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
