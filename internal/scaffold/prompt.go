package scaffold

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arcane-labs/arcane-cli/internal/catalog"
)

// Prompter returns validated answers. ui.Prompter implements it.
type Prompter interface {
	Select(title string, labels []string) (int, error)
	Input(title, value string, validate func(string) error) (string, error)
}

// ChooseTemplate returns the template of tag named by npmName, or asks the
// user when npmName is empty and there is more than one candidate.
func ChooseTemplate(p Prompter, c *catalog.Catalog, tag catalog.Tag, npmName string) (catalog.Template, error) {
	if npmName != "" {
		tmpl, ok := c.Find(tag, npmName)
		if !ok {
			return catalog.Template{}, fmt.Errorf("no %s template named %s, see `arcane templates list`", tag, npmName)
		}
		return tmpl, nil
	}

	candidates := c.ByTag(tag)
	switch len(candidates) {
	case 0:
		return catalog.Template{}, fmt.Errorf("no %s templates available", tag)
	case 1:
		return candidates[0], nil
	}

	labels := make([]string, len(candidates))
	for i, t := range candidates {
		labels[i] = t.Name
	}
	idx, err := p.Select(fmt.Sprintf("Choose a %s template", tag), labels)
	if err != nil {
		return catalog.Template{}, err
	}
	if idx < 0 || idx >= len(candidates) {
		return catalog.Template{}, errors.New("invalid template selection")
	}
	return candidates[idx], nil
}

// AskValue returns value when it passes validate, otherwise asks the user.
func AskValue(p Prompter, title, value string, validate func(string) error) (string, error) {
	value = strings.TrimSpace(value)
	if value != "" && validate(value) == nil {
		return value, nil
	}
	answer, err := p.Input(title, value, func(s string) error {
		return validate(strings.TrimSpace(s))
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
