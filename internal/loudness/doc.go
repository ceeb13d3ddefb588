// Package loudness implements the measure stage of two-stage EBU R128
// normalization and builds the matching apply filter.
//
// Analyze first asks the prober whether the input carries audio. Without
// audio it returns Result{Found: false}; otherwise it runs ffmpeg's loudnorm
// filter in print_format=json mode and parses the statistics block out of the
// diagnostic stream. ApplyFilter turns those statistics into the linear
// loudnorm filter used by the second encode pass.
package loudness
