package scaffold

import (
	"fmt"
	"os"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/arcane-labs/arcane-cli/internal/validation"
)

const scriptOpenTag = "<script>"

// SectionRequest places a section next to SourceFile and references it at
// line Line (0-based, 0..number of lines).
type SectionRequest struct {
	Name       string
	SourceFile string
	Line       int
}

// ComponentName is the PascalCase name used for the directory and import.
func ComponentName(section string) string {
	return strcase.ToCamel(section)
}

// TagName is the kebab-case element name used in the template.
func TagName(section string) string {
	return strcase.ToKebab(section)
}

// SpliceSection inserts the section's usage tag at index line, then its import
// after the first line that is exactly "<script>". found is false when there
// is no such line and no import was inserted.
func SpliceSection(lines []string, section string, line int) (out []string, found bool, err error) {
	if line < 0 || line > len(lines) {
		return nil, false, validation.NewValidationError("line",
			fmt.Sprintf("line %d is out of range, the file has %d lines", line, len(lines)))
	}

	tag := TagName(section)
	component := ComponentName(section)

	out = make([]string, 0, len(lines)+2)
	out = append(out, lines[:line]...)
	out = append(out, fmt.Sprintf("<%s></%s>", tag, tag))
	out = append(out, lines[line:]...)

	for i, l := range out {
		if l == scriptOpenTag {
			importLine := fmt.Sprintf("import %s from './components/%s/index.vue'", component, component)
			out = append(out[:i+1], append([]string{importLine}, out[i+1:]...)...)
			return out, true, nil
		}
	}
	return out, false, nil
}

// sourceLines splits a file into lines, remembering its line separator and
// whether it ends with one.
type sourceLines struct {
	lines    []string
	sep      string
	trailing bool
}

func readSourceLines(path string) (sourceLines, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sourceLines{}, err
	}
	content := string(data)
	sep := "\n"
	if strings.Contains(content, "\r\n") {
		sep = "\r\n"
	}
	s := sourceLines{sep: sep}
	if content == "" {
		return s, nil
	}
	if strings.HasSuffix(content, sep) {
		s.trailing = true
		content = strings.TrimSuffix(content, sep)
	}
	s.lines = strings.Split(content, sep)
	return s, nil
}

func (s sourceLines) write(path string, lines []string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	content := strings.Join(lines, s.sep)
	if s.trailing {
		content += s.sep
	}
	return os.WriteFile(path, []byte(content), info.Mode().Perm())
}
