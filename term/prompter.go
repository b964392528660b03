// Package term implements the interactive prompting boundary with
// terminal forms.
package term

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// HuhPrompter renders selections as terminal forms.
// It satisfies tracker.Prompter.
type HuhPrompter struct{}

// NewPrompter returns a terminal-backed prompter.
func NewPrompter() *HuhPrompter {
	return &HuhPrompter{}
}

// ChooseMany presents a multi-select over the candidates and returns the
// chosen subset.
func (p *HuhPrompter) ChooseMany(title string, options []string) ([]string, error) {
	opts := make([]huh.Option[string], 0, len(options))
	for _, o := range options {
		opts = append(opts, huh.NewOption(o, o))
	}

	var selected []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title(title).
				Options(opts...).
				Filterable(true).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("multi-select: %w", err)
	}
	return selected, nil
}

// ChooseOne presents a single-select over the options.
func (p *HuhPrompter) ChooseOne(title string, options []string) (string, error) {
	opts := make([]huh.Option[string], 0, len(options))
	for _, o := range options {
		opts = append(opts, huh.NewOption(o, o))
	}

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(opts...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("select: %w", err)
	}
	return choice, nil
}
