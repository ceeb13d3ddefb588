// Package ffmpeg runs the transcoder as an opaque subprocess.
//
// Run streams the diagnostic output, routing `frame=`/`size=` status lines to a
// progress callback and keeping everything else as a transcript that callers
// mine for structured payloads such as loudnorm JSON. Non-zero exits surface as
// *ExitError carrying the final diagnostic line.
package ffmpeg
