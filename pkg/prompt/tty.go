package prompt

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// TTY prompts on the controlling terminal with interactive forms. Every
// prompt first checks that stdin is a terminal; moorfs is often spawned by
// a file manager, and a form rendered into a pipe would hang it.
type TTY struct{}

// NewTTY creates a terminal prompter.
func NewTTY() *TTY {
	return &TTY{}
}

// AskText prompts for one line of text.
func (t *TTY) AskText(title string, secret bool) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("prompt.AskText: stdin is not a terminal")
	}
	var value string
	input := huh.NewInput().Title(title).Value(&value)
	if secret {
		input = input.EchoMode(huh.EchoModePassword)
	}
	if err := input.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("prompt.AskText: %w", err)
	}
	return value, nil
}

// AskChoice prompts to pick one of options.
func (t *TTY) AskChoice(title string, options []string) (int, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return 0, fmt.Errorf("prompt.AskChoice: stdin is not a terminal")
	}
	opts := make([]huh.Option[int], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o, i)
	}
	var idx int
	sel := huh.NewSelect[int]().Title(title).Options(opts...).Value(&idx)
	if err := sel.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return 0, ErrCancelled
		}
		return 0, fmt.Errorf("prompt.AskChoice: %w", err)
	}
	return idx, nil
}
