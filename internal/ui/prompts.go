package ui

import (
	"errors"

	"github.com/charmbracelet/huh"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("prompt aborted")

// SelectOption is a single entry of a Select prompt.
type SelectOption[T comparable] struct {
	Label string
	Value T
}

// Select displays a selection prompt and returns the chosen value.
func Select[T comparable](title string, options []SelectOption[T]) (T, error) {
	var result T

	huhOpts := make([]huh.Option[T], len(options))
	for i, opt := range options {
		huhOpts[i] = huh.NewOption(opt.Label, opt.Value)
	}

	field := huh.NewSelect[T]().
		Title(title).
		Options(huhOpts...).
		Value(&result)

	if err := runForm(field); err != nil {
		return result, err
	}
	return result, nil
}

// Input displays a text prompt prefilled with value. validate may be nil.
func Input(title, value string, validate func(string) error) (string, error) {
	result := value
	input := huh.NewInput().
		Title(title).
		Value(&result)
	if validate != nil {
		input = input.Validate(validate)
	}

	if err := runForm(input); err != nil {
		return "", err
	}
	return result, nil
}

func runForm(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).WithTheme(ArcaneTheme())
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return err
	}
	return nil
}

// Prompter asks questions through huh forms on the terminal.
type Prompter struct{}

func NewPrompter() *Prompter {
	return &Prompter{}
}

// Select returns the index of the chosen label.
func (p *Prompter) Select(title string, labels []string) (int, error) {
	options := make([]SelectOption[int], len(labels))
	for i, label := range labels {
		options[i] = SelectOption[int]{Label: label, Value: i}
	}
	return Select(title, options)
}

// Input returns a validated answer, starting from value.
func (p *Prompter) Input(title, value string, validate func(string) error) (string, error) {
	return Input(title, value, validate)
}
