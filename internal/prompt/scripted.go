package prompt

import (
	"context"
	"sync"
)

// Scripted replays canned answers in order. It records every question asked
// and returns ErrEndOfInput once the answers run out.
type Scripted struct {
	mu        sync.Mutex
	answers   []string
	questions []string
}

// NewScripted returns a prompter that answers with the given lines.
func NewScripted(answers ...string) *Scripted {
	return &Scripted{answers: append([]string(nil), answers...)}
}

// Ask returns the next scripted answer.
func (s *Scripted) Ask(ctx context.Context, question string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, question)
	if err := ctx.Err(); err != nil {
		return "", ErrCanceled
	}
	if len(s.answers) == 0 {
		return "", ErrEndOfInput
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

// Questions returns the questions asked so far.
func (s *Scripted) Questions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.questions...)
}

// Remaining returns the number of unused answers.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}
