package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Command describes one transcoder invocation.
type Command struct {
	Binary string
	Args   []string
	// Dir is the working directory. Two-pass logs land here.
	Dir string
	// Progress receives status lines ffmpeg rewrites in place with -stats.
	Progress func(Progress)
}

// Progress is a parsed `frame=... time=... speed=...` status line.
type Progress struct {
	Line  string
	Frame int64
	Time  time.Duration
	Speed string
}

// Result captures the diagnostic stream of a finished invocation.
type Result struct {
	// Transcript holds every stderr line that was not a progress update.
	Transcript string
	ExitCode   int
}

// ExitError reports a non-zero exit from the transcoder.
type ExitError struct {
	Code int
	Tail string
}

func (e *ExitError) Error() string {
	if e.Tail == "" {
		return fmt.Sprintf("ffmpeg exited with code %d", e.Code)
	}
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.Code, e.Tail)
}

var commandContext = exec.CommandContext

// Run executes the transcoder, splitting its diagnostic stream into progress
// updates and transcript lines. Cancelling ctx kills the process.
func Run(ctx context.Context, command Command) (Result, error) {
	binary := strings.TrimSpace(command.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}

	cmd := commandContext(ctx, binary, command.Args...) //nolint:gosec
	cmd.Dir = command.Dir
	cmd.Stdout = io.Discard
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start ffmpeg: %w", err)
	}

	var transcript bytes.Buffer
	var scanErr error
	reader := bufio.NewReaderSize(stderr, 64*1024)
	for {
		line, err := readSegment(reader, maxLineBytes)
		if strings.TrimSpace(line) != "" {
			if IsProgressLine(line) {
				if command.Progress != nil {
					command.Progress(ParseProgress(line))
				}
			} else {
				transcript.WriteString(line)
				transcript.WriteByte('\n')
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				scanErr = err
				_, _ = io.Copy(io.Discard, stderr)
			}
			break
		}
	}
	waitErr := cmd.Wait()

	result := Result{Transcript: transcript.String()}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return result, &ExitError{Code: exitErr.ExitCode(), Tail: lastLine(result.Transcript)}
		}
		return result, fmt.Errorf("ffmpeg: %w", waitErr)
	}
	if scanErr != nil {
		return result, fmt.Errorf("read ffmpeg output: %w", scanErr)
	}
	return result, nil
}

// IsProgressLine reports whether line is a -stats status update.
func IsProgressLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "frame=") || strings.HasPrefix(trimmed, "size=")
}

// ParseProgress extracts frame, time and speed from a status line. Fields
// that are absent or reported as N/A stay zero.
func ParseProgress(line string) Progress {
	progress := Progress{Line: strings.TrimSpace(line)}
	fields := statusFields(progress.Line)
	if frame, err := strconv.ParseInt(fields["frame"], 10, 64); err == nil {
		progress.Frame = frame
	}
	if ts, ok := parseClock(fields["time"]); ok {
		progress.Time = ts
	}
	progress.Speed = fields["speed"]
	return progress
}

// statusFields splits `frame=  12 fps=0.0 time=00:00:01.00` into key/value
// pairs. ffmpeg pads values after '=' with spaces, so tokens are re-joined.
func statusFields(line string) map[string]string {
	fields := make(map[string]string)
	tokens := strings.Fields(line)
	for i := 0; i < len(tokens); i++ {
		key, value, ok := strings.Cut(tokens[i], "=")
		if !ok {
			continue
		}
		if value == "" && i+1 < len(tokens) && !strings.Contains(tokens[i+1], "=") {
			value = tokens[i+1]
			i++
		}
		fields[key] = value
	}
	return fields
}

func parseClock(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return 0, false
	}
	negative := strings.HasPrefix(value, "-")
	value = strings.TrimPrefix(value, "-")
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}
	total := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds*float64(time.Second))
	if negative {
		return 0, true
	}
	return total, true
}

func lastLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.LastIndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[idx+1:])
	}
	return text
}

// maxLineBytes caps one stored diagnostic line; the rest of an oversized
// line is read and dropped so the pipe never stalls.
const maxLineBytes = 1024 * 1024

// readSegment returns the next line ended by '\n' or a bare '\r', which
// ffmpeg uses to redraw its status line. At most limit bytes are kept.
func readSegment(r *bufio.Reader, limit int) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return string(buf), err
		}
		if b == '\n' || b == '\r' {
			return string(buf), nil
		}
		if len(buf) < limit {
			buf = append(buf, b)
		}
	}
}
