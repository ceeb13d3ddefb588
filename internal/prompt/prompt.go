package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"o3enc/internal/logging"
)

var (
	// ErrEndOfInput reports that the answer stream closed before a reply.
	ErrEndOfInput = errors.New("unexpected end of input")
	// ErrCanceled reports an interrupt while waiting for an answer.
	ErrCanceled = fmt.Errorf("prompt canceled: %w", context.Canceled)
)

// Prompter asks the operator a question and returns the raw reply line.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Choice asks until the reply is an integer in [0, highest]. Invalid replies are
// logged and re-asked.
func Choice(ctx context.Context, p Prompter, question string, highest int, logger *slog.Logger) (int, error) {
	allowed := make([]string, 0, highest+1)
	for i := 0; i <= highest; i++ {
		allowed = append(allowed, strconv.Itoa(i))
	}
	for {
		answer, err := p.Ask(ctx, question)
		if err != nil {
			return 0, err
		}
		value, convErr := strconv.Atoi(strings.TrimSpace(answer))
		if convErr == nil && value >= 0 && value <= highest {
			return value, nil
		}
		warnInvalid(logger, answer, "Please enter "+joinOr(allowed))
	}
}

// YesNo asks until the reply is Y or N, case-insensitive.
func YesNo(ctx context.Context, p Prompter, question string, logger *slog.Logger) (bool, error) {
	for {
		answer, err := p.Ask(ctx, question)
		if err != nil {
			return false, err
		}
		switch strings.ToUpper(strings.TrimSpace(answer)) {
		case "Y":
			return true, nil
		case "N":
			return false, nil
		}
		warnInvalid(logger, answer, "Please enter Y or N")
	}
}

func warnInvalid(logger *slog.Logger, answer, hint string) {
	if logger == nil {
		return
	}
	logger.Warn(fmt.Sprintf("Invalid input %q. %s.", strings.TrimSpace(answer), hint),
		logging.String(logging.FieldEventType, "invalid_input"))
}

func joinOr(values []string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		return strings.Join(values[:len(values)-1], ", ") + " or " + values[len(values)-1]
	}
}
