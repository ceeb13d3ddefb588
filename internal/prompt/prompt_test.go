package prompt_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"o3enc/internal/logging"
	"o3enc/internal/prompt"
	"o3enc/internal/services"
)

func TestChoiceRetriesUntilValid(t *testing.T) {
	p := prompt.NewScripted("7", "x", " 2 ")
	got, err := prompt.Choice(context.Background(), p, "Select (0-2): ", 2, logging.NewNop())
	if err != nil {
		t.Fatalf("Choice returned error: %v", err)
	}
	if got != 2 {
		t.Fatalf("Choice = %d, want 2", got)
	}
	if len(p.Questions()) != 3 {
		t.Fatalf("expected three asks, got %d", len(p.Questions()))
	}
}

func TestChoiceEndOfInput(t *testing.T) {
	p := prompt.NewScripted("9")
	_, err := prompt.Choice(context.Background(), p, "Select: ", 2, nil)
	if !errors.Is(err, prompt.ErrEndOfInput) {
		t.Fatalf("expected end of input, got %v", err)
	}
}

func TestYesNo(t *testing.T) {
	p := prompt.NewScripted("maybe", "y", "N")
	yes, err := prompt.YesNo(context.Background(), p, "Proceed? (Y/N): ", nil)
	if err != nil || !yes {
		t.Fatalf("expected yes, got %v %v", yes, err)
	}
	no, err := prompt.YesNo(context.Background(), p, "Proceed? (Y/N): ", nil)
	if err != nil || no {
		t.Fatalf("expected no, got %v %v", no, err)
	}
}

func TestScriptedCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := prompt.NewScripted("Y").Ask(ctx, "q")
	if !errors.Is(err, prompt.ErrCanceled) || services.ExitCode(err) != services.ExitInterrupted {
		t.Fatalf("expected cancellation mapped to interrupt, got %v", err)
	}
}

func TestTerminalReadsLines(t *testing.T) {
	var out bytes.Buffer
	term := prompt.NewTerminal(strings.NewReader("first\r\nsecond\n"), &out)

	for _, want := range []string{"first", "second"} {
		got, err := term.Ask(context.Background(), "Q: ")
		if err != nil {
			t.Fatalf("Ask returned error: %v", err)
		}
		if got != want {
			t.Fatalf("Ask = %q, want %q", got, want)
		}
	}
	if _, err := term.Ask(context.Background(), "Q: "); !errors.Is(err, prompt.ErrEndOfInput) {
		t.Fatalf("expected end of input, got %v", err)
	}
	if !strings.HasPrefix(out.String(), "Q: Q: Q: ") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if term.Interactive() {
		t.Fatal("buffer output should not be interactive")
	}
}

func TestTerminalCancelWhileWaiting(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()
	term := prompt.NewTerminal(reader, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := term.Ask(ctx, "Q: ")
	if !errors.Is(err, prompt.ErrCanceled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
