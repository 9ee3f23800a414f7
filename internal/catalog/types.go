package catalog

import "strings"

// Type selects how a template is installed.
type Type string

const (
	// TypeNormal templates are copied, rendered and merged by the CLI.
	TypeNormal Type = "normal"
	// TypeCustom templates ship their own installer as the package entry point.
	TypeCustom Type = "custom"
)

// Tag is the flow a template belongs to.
type Tag string

const (
	TagPage    Tag = "page"
	TagSection Tag = "section"
	TagProject Tag = "project"
)

// Tags lists every flow in display order.
var Tags = []Tag{TagPage, TagSection, TagProject}

// ParseTag accepts a flow name in any case.
func ParseTag(s string) (Tag, bool) {
	for _, t := range Tags {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

// Template describes one installable template package. The last group of
// fields is filled in at run time from user input.
type Template struct {
	Name        string   `yaml:"name" toml:"name" json:"name"`
	NpmName     string   `yaml:"npmName" toml:"npmName" json:"npmName"`
	Version     string   `yaml:"version" toml:"version" json:"version"`
	Type        Type     `yaml:"type,omitempty" toml:"type,omitempty" json:"type"`
	Tag         Tag      `yaml:"tag" toml:"tag" json:"tag"`
	TargetPath  string   `yaml:"targetPath" toml:"targetPath" json:"targetPath"`
	Ignore      []string `yaml:"ignore,omitempty" toml:"ignore,omitempty" json:"ignore,omitempty"`
	Description string   `yaml:"description,omitempty" toml:"description,omitempty" json:"description,omitempty"`

	PageName    string `yaml:"-" toml:"-" json:"pageName,omitempty"`
	SectionName string `yaml:"-" toml:"-" json:"sectionName,omitempty"`
	SourceFile  string `yaml:"-" toml:"-" json:"sourceFile,omitempty"`
	LineNumber  int    `yaml:"-" toml:"-" json:"lineNumber,omitempty"`
}

// InstallType is Type with the empty value read as TypeNormal.
func (t Template) InstallType() Type {
	if t.Type == "" {
		return TypeNormal
	}
	return t.Type
}

// Key identifies a template within a catalog.
func (t Template) Key() string {
	return string(t.Tag) + ":" + t.NpmName
}
