// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, container name)
//
// Entry points:
//   - Inspect: full stream and format listing, used to report on outputs
//   - InspectVideo: first video stream with the fields encodes depend on
//   - AudioCodecs: audio presence check via CSV output
package ffprobe
