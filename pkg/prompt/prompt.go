// Package prompt asks the user for credentials and choices during mount
// operations. The real implementation renders interactive terminal forms;
// tests use the scripted variant.
package prompt

import "errors"

// ErrCancelled is returned when the user dismisses a prompt. Callers treat
// it as a silent abort, not a failure.
var ErrCancelled = errors.New("prompt cancelled")

// Prompter asks the user for input.
type Prompter interface {
	// AskText prompts for a line of text. Secret input is not echoed.
	AskText(title string, secret bool) (string, error)
	// AskChoice prompts to pick one of options, returning its index.
	AskChoice(title string, options []string) (int, error)
}
