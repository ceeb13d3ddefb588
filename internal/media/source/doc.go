// Package source derives the immutable description of an input video from
// the prober: dimensions, frame rate, duration, codec, pixel format, color
// metadata, and file size.
package source
