// Package catalog lists the templates the CLI can install: an embedded
// built-in list plus an optional user file in the CLI home directory.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the user catalog in the CLI home directory.
	FileName = "templates.yaml"
	// TOMLFileName is read when FileName does not exist.
	TOMLFileName = "templates.toml"
)

//go:embed builtin/templates.yaml
var builtinYAML []byte

// File is the on-disk catalog format.
type File struct {
	Templates []Template `yaml:"templates" toml:"templates"`
}

// Catalog is the merged list of built-in and user templates.
type Catalog struct {
	Templates []Template
}

// Builtin returns the templates shipped with the CLI.
func Builtin() ([]Template, error) {
	var f File
	if err := yaml.Unmarshal(builtinYAML, &f); err != nil {
		return nil, fmt.Errorf("failed to parse built-in catalog: %w", err)
	}
	return f.Templates, nil
}

// Load returns the built-in templates overlaid with the user catalog in home.
// A user entry with the same tag and package name replaces the built-in one.
func Load(logger *zerolog.Logger, home string) (*Catalog, error) {
	templates, err := Builtin()
	if err != nil {
		return nil, err
	}

	user, path, err := LoadUser(home)
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.Debug().Msgf("Loaded %d templates from %s", len(user), path)
	}

	index := make(map[string]int, len(templates))
	for i, t := range templates {
		index[t.Key()] = i
	}
	for _, t := range user {
		if i, ok := index[t.Key()]; ok {
			templates[i] = t
			continue
		}
		index[t.Key()] = len(templates)
		templates = append(templates, t)
	}
	return &Catalog{Templates: templates}, nil
}

// LoadUser reads the user catalog from home, preferring YAML over TOML. It
// returns the path it read, or "" when neither file exists.
func LoadUser(home string) ([]Template, string, error) {
	yamlPath := filepath.Join(home, FileName)
	data, err := os.ReadFile(yamlPath)
	if err == nil {
		var f File
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, "", fmt.Errorf("failed to parse %s: %w", yamlPath, err)
		}
		return f.Templates, yamlPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, "", fmt.Errorf("failed to read %s: %w", yamlPath, err)
	}

	tomlPath := filepath.Join(home, TOMLFileName)
	var f File
	if _, err := toml.DecodeFile(tomlPath, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to parse %s: %w", tomlPath, err)
	}
	return f.Templates, tomlPath, nil
}

// SaveUser writes templates to the YAML user catalog in home.
func SaveUser(home string, templates []Template) error {
	if err := os.MkdirAll(home, 0750); err != nil {
		return fmt.Errorf("create home directory: %w", err)
	}

	data, err := yaml.Marshal(&File{Templates: templates})
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}

	path := filepath.Join(home, FileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// ByTag returns the templates of one flow.
func (c *Catalog) ByTag(tag Tag) []Template {
	var out []Template
	for _, t := range c.Templates {
		if t.Tag == tag {
			out = append(out, t)
		}
	}
	return out
}

// Find returns the template of a flow with the given package name.
func (c *Catalog) Find(tag Tag, npmName string) (Template, bool) {
	for _, t := range c.Templates {
		if t.Tag == tag && t.NpmName == npmName {
			return t, true
		}
	}
	return Template{}, false
}

// Sorted returns the templates ordered by tag then name.
func (c *Catalog) Sorted() []Template {
	out := append([]Template(nil), c.Templates...)
	order := map[Tag]int{}
	for i, t := range Tags {
		order[t] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tag != out[j].Tag {
			return order[out[i].Tag] < order[out[j].Tag]
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ParseSpec splits "name@version" into its parts. Scoped names keep their
// leading "@"; a missing version is "latest".
func ParseSpec(s string) (name, version string, err error) {
	s = strings.TrimSpace(s)
	name, version = s, "latest"
	if idx := strings.LastIndex(s, "@"); idx > 0 {
		name, version = s[:idx], s[idx+1:]
	}
	if name == "" || name == "@" || version == "" || strings.HasSuffix(name, "/") {
		return "", "", fmt.Errorf("expected format: name[@version], got %q", s)
	}
	return name, version, nil
}
