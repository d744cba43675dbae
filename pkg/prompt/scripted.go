package prompt

import (
	"fmt"
	"sync"
)

// Answer is one scripted prompt response.
type Answer struct {
	Text   string
	Choice int
	Cancel bool
}

// Text queues a text answer.
func Text(s string) Answer { return Answer{Text: s} }

// Choice queues a selection answer.
func Choice(i int) Answer { return Answer{Choice: i} }

// Cancel queues a cancellation.
func Cancel() Answer { return Answer{Cancel: true} }

// Scripted replays queued answers in order (for testing). An exhausted
// queue is an error: a test that prompts more than it scripted is broken.
type Scripted struct {
	mu      sync.Mutex
	answers []Answer
	asked   []string
}

// NewScripted creates a prompter that will return the given answers.
func NewScripted(answers ...Answer) *Scripted {
	return &Scripted{answers: answers}
}

// AskText pops the next scripted answer.
func (s *Scripted) AskText(title string, secret bool) (string, error) {
	a, err := s.next(title)
	if err != nil {
		return "", err
	}
	return a.Text, nil
}

// AskChoice pops the next scripted answer.
func (s *Scripted) AskChoice(title string, options []string) (int, error) {
	a, err := s.next(title)
	if err != nil {
		return 0, err
	}
	if a.Choice < 0 || a.Choice >= len(options) {
		return 0, fmt.Errorf("prompt.Scripted: choice %d out of range for %q", a.Choice, title)
	}
	return a.Choice, nil
}

// Asked returns the titles of every prompt shown, in order.
func (s *Scripted) Asked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.asked))
	copy(out, s.asked)
	return out
}

func (s *Scripted) next(title string) (Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked = append(s.asked, title)
	if len(s.answers) == 0 {
		return Answer{}, fmt.Errorf("prompt.Scripted: no answer scripted for %q", title)
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	if a.Cancel {
		return Answer{}, ErrCancelled
	}
	return a, nil
}
