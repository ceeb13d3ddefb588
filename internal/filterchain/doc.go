// Package filterchain builds the video filter graph for one preset: pixel
// format conversion, an aspect-preserving scale when the target height
// differs, a frame rate conversion when the target rate differs by more than
// FPSTolerance, and the colorspace conversion filter last.
package filterchain
