package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

type lineResult struct {
	line string
	err  error
}

// Terminal reads answers line by line from an input stream. A single reader
// goroutine feeds Ask so a pending question can be abandoned on interrupt.
type Terminal struct {
	in    io.Reader
	out   io.Writer
	color bool
	once  sync.Once
	lines chan lineResult
}

// NewTerminal builds a prompter over in/out. Questions are highlighted when
// out is an interactive terminal.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:    in,
		out:   out,
		color: isTerminal(out),
		lines: make(chan lineResult),
	}
}

// Out returns the writer questions are printed to.
func (t *Terminal) Out() io.Writer {
	return t.out
}

// Interactive reports whether output goes to a terminal.
func (t *Terminal) Interactive() bool {
	return t.color
}

// Ask prints question and waits for the next input line.
func (t *Terminal) Ask(ctx context.Context, question string) (string, error) {
	if t.color {
		fmt.Fprintf(t.out, "\x1b[1m%s\x1b[0m", question)
	} else {
		fmt.Fprint(t.out, question)
	}
	t.once.Do(t.startReader)

	select {
	case <-ctx.Done():
		fmt.Fprintln(t.out)
		return "", ErrCanceled
	case result, ok := <-t.lines:
		if !ok {
			fmt.Fprintln(t.out)
			return "", ErrEndOfInput
		}
		if result.err != nil {
			return "", fmt.Errorf("read answer: %w", result.err)
		}
		return result.line, nil
	}
}

func (t *Terminal) startReader() {
	go func() {
		defer close(t.lines)
		scanner := bufio.NewScanner(t.in)
		for scanner.Scan() {
			t.lines <- lineResult{line: strings.TrimRight(scanner.Text(), "\r")}
		}
		if err := scanner.Err(); err != nil {
			t.lines <- lineResult{err: err}
		}
	}()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
