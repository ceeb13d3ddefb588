// Package logs reads the per-run log file written by the logging package:
// the last N lines, then optionally new lines as the running session
// appends them.
package logs
