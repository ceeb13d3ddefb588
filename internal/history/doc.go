// Package history keeps a SQLite ledger of encode jobs.
//
// Every job a run attempts is recorded with its preset, output path, final
// state, size and elapsed time. The `o3enc history` command reads it back.
package history
