// Package services defines shared utilities consumed by the pipeline
// components.
//
// Key responsibilities:
//   - Structured error markers (initialization, video analysis, audio
//     analysis, preset, encoding) plus the Wrap helper that keeps the
//     component and operation in the message while preserving errors.Is.
//   - Exit code mapping for the CLI boundary, including user interrupts.
//   - Context helpers that stamp the run ID and active preset for logging.
package services
