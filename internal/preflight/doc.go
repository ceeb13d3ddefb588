// Package preflight verifies the environment before the first encode.
//
// CheckBinaries confirms ffmpeg and ffprobe resolve. RunAll additionally
// checks the work directory and, unless disabled in config, runs a one-frame
// lavfi test decode for every hardware accelerator the loaded presets name.
// Failures carry services.ErrInitialization.
package preflight
