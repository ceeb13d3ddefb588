// Package encoding runs one preset's two-pass encode as an explicit state
// machine.
//
// A job moves Validated, Pass1Running, Pass1Done, Pass2Running, Pass2Done,
// Verified and CleanedUp, or ends in Failed from any earlier state. Validation
// happens before any process is spawned. While the passes run the
// orchestrator holds an advisory lock on the work directory's pass log. A
// failed job has its partial output removed, and cleanup runs on a detached
// context whatever the result, without ever replacing the job's error.
package encoding
