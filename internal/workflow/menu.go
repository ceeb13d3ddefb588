package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"o3enc/internal/logging"
	"o3enc/internal/naming"
	"o3enc/internal/presets"
	"o3enc/internal/prompt"
	"o3enc/internal/services"
)

type menuKind int

const (
	menuAdd menuKind = iota
	menuFinish
	menuReset
	menuInvalid
)

// menuInput is one parsed reply to the preset menu.
type menuInput struct {
	kind    menuKind
	numbers []int
	// bad holds the first unparseable token; numbers before it still count.
	bad string
}

func parseMenuInput(line string) menuInput {
	choice := strings.ToUpper(strings.TrimSpace(line))
	switch choice {
	case "Q":
		return menuInput{kind: menuFinish}
	case "R":
		return menuInput{kind: menuReset}
	case "":
		return menuInput{kind: menuInvalid}
	}
	input := menuInput{kind: menuAdd}
	for _, token := range strings.Split(choice, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			input.bad = choice
			if len(input.numbers) == 0 {
				input.kind = menuInvalid
			}
			break
		}
		input.numbers = append(input.numbers, n)
	}
	return input
}

// selectPresets shows the preset menu and builds the encode queue.
func (s *Session) selectPresets(ctx context.Context, store *presets.Store) ([]presets.Preset, error) {
	logger := logging.WithContext(ctx, s.logger)
	all := store.All()
	if len(all) == 0 {
		return nil, services.Wrap(services.ErrPreset, "workflow", "select presets", "No presets available", nil)
	}

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Available Encoding Presets:")
	for i, p := range all {
		fmt.Fprintf(s.out, "[%d] %s\n", i+1, p.Name)
	}
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintf(s.out, " * Enter numbers (1-%d) - Add presets to queue\n", len(all))
	fmt.Fprintln(s.out, " * Q - Finish selection and proceed")
	fmt.Fprintln(s.out, " * R - Reset queue and start over")
	fmt.Fprintln(s.out)

	question := fmt.Sprintf("Select presets (1-%d, comma-separated, Q/R): ", len(all))
	var selected []presets.Preset
	for {
		if len(selected) == 0 {
			fmt.Fprintln(s.out, "[Empty] No presets selected")
		} else {
			fmt.Fprintln(s.out, "Selected presets:")
			for _, p := range selected {
				fmt.Fprintf(s.out, "  * %s\n", p.Name)
			}
		}
		fmt.Fprintln(s.out)

		answer, err := s.prompter.Ask(ctx, question)
		if err != nil {
			return nil, inputError(err, services.ErrPreset, "select presets")
		}

		input := parseMenuInput(answer)
		switch input.kind {
		case menuFinish:
			if len(selected) == 0 {
				fmt.Fprintln(s.out, "Error: Queue is empty. Please select at least one preset.")
				fmt.Fprintln(s.out)
				continue
			}
			fmt.Fprintln(s.out, "\nSelected presets for encoding:")
			for i, p := range selected {
				fmt.Fprintf(s.out, "  %d. [%s]\n", i+1, p.Name)
			}
			return selected, nil
		case menuReset:
			selected = nil
			fmt.Fprintln(s.out, "Queue has been reset.")
			fmt.Fprintln(s.out)
			continue
		}

		for _, n := range input.numbers {
			if n < 1 || n > len(all) {
				logger.Warn(fmt.Sprintf("Invalid preset number selected: %d", n),
					logging.String(logging.FieldEventType, "invalid_input"))
				continue
			}
			p := all[n-1]
			if containsPreset(selected, p.Name) {
				logger.Warn(fmt.Sprintf("Skipping [%s] - Already in queue", p.Name),
					logging.String(logging.FieldEventType, "duplicate_selection"))
				continue
			}
			selected = append(selected, p)
			fmt.Fprintf(s.out, "Added preset to queue: %s\n", p.Name)
		}
		if input.bad != "" {
			logger.Warn(fmt.Sprintf("Invalid preset selection input: %s", input.bad),
				logging.String(logging.FieldEventType, "invalid_input"))
		}
		fmt.Fprintln(s.out)
	}
}

func containsPreset(list []presets.Preset, name string) bool {
	for _, p := range list {
		if p.Name == name {
			return true
		}
	}
	return false
}

// chooseBaseName asks whether to reuse the input stem or enter a custom name.
func (s *Session) chooseBaseName(ctx context.Context, input string) (string, error) {
	logger := logging.WithContext(ctx, s.logger)
	stem := naming.BaseName(input)

	fmt.Fprintf(s.out, "\nCurrent input filename: %s\n", stem)
	useStem, err := prompt.YesNo(ctx, s.prompter, "Use input filename as base? (Y/N): ", logger)
	if err != nil {
		return "", inputError(err, services.ErrPreset, "base filename")
	}
	if useStem {
		return stem, nil
	}

	for {
		answer, err := s.prompter.Ask(ctx, "\nEnter custom output filename (without extension): ")
		if err != nil {
			return "", inputError(err, services.ErrPreset, "base filename")
		}
		base := strings.TrimSpace(answer)
		if err := naming.ValidateBaseName(base); err != nil {
			logger.Warn(lastSegment(err),
				logging.String(logging.FieldEventType, "invalid_input"))
			continue
		}
		return base, nil
	}
}

// inputError keeps cancellation untouched and classifies everything else,
// end of input included, under marker.
func inputError(err, marker error, operation string) error {
	if services.IsCanceled(err) {
		return err
	}
	if errors.Is(err, prompt.ErrEndOfInput) {
		return services.Wrap(marker, "workflow", operation, "Unexpected end of input", err)
	}
	return services.Wrap(marker, "workflow", operation, "Failed to read input", err)
}

// lastSegment returns the human message at the end of a wrapped error chain.
func lastSegment(err error) string {
	msg := err.Error()
	if idx := strings.LastIndex(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}
