// Package depmerge reconciles a template's dependencies with the dependency
// map of the project it is installed into.
package depmerge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/arcane-labs/arcane-cli/internal/manifest"
)

const dependenciesKey = "dependencies"

// Dependency is one entry of a package.json dependency map.
type Dependency struct {
	Name  string
	Range string
}

// Conflict is a dependency both sides declare with different upper bounds.
// The target's range is kept.
type Conflict struct {
	Name     string
	Template string
	Target   string
}

// Result is the outcome of reconciling two dependency lists.
type Result struct {
	// Dependencies is the merged list: the target's entries in their order,
	// then the template-only entries in template order.
	Dependencies []Dependency
	Added        []Dependency
	Conflicts    []Conflict
}

// Diff merges template into target. The target wins every overlap and nothing
// is removed. An overlap whose upper bounds differ is logged at warn level and
// reported as a Conflict.
func Diff(logger *zerolog.Logger, template, target []Dependency) Result {
	existing := make(map[string]string, len(target))
	for _, d := range target {
		existing[d.Name] = d.Range
	}

	res := Result{Dependencies: append([]Dependency(nil), target...)}
	for _, d := range template {
		targetRange, ok := existing[d.Name]
		if !ok {
			logger.Debug().Str("dependency", d.Name).Str("range", d.Range).Msg("Template adds a new dependency")
			res.Dependencies = append(res.Dependencies, d)
			res.Added = append(res.Added, d)
			existing[d.Name] = d.Range
			continue
		}
		if !sameUpperBound(d.Range, targetRange) {
			logger.Warn().
				Str("dependency", d.Name).
				Str("template", d.Range).
				Str("target", targetRange).
				Msgf("Dependency %s conflicts: template wants %s, project keeps %s", d.Name, d.Range, targetRange)
			res.Conflicts = append(res.Conflicts, Conflict{Name: d.Name, Template: d.Range, Target: targetRange})
		}
	}
	return res
}

func sameUpperBound(a, b string) bool {
	boundA, okA := UpperBound(a)
	boundB, okB := UpperBound(b)
	if !okA || !okB {
		return a == b
	}
	return boundA == boundB
}

// Merge reconciles the dependencies of the manifest at templatePath into the
// manifest at targetPath and rewrites the target. Only its "dependencies" field
// changes; the file is written with two-space indentation and a trailing
// newline.
func Merge(logger *zerolog.Logger, templatePath, targetPath string) (Result, error) {
	logger.Debug().Msgf("Merging dependencies of %s into %s", templatePath, targetPath)

	templateData, err := manifest.Read(templatePath)
	if err != nil {
		return Result{}, err
	}
	targetData, err := manifest.Read(targetPath)
	if err != nil {
		return Result{}, err
	}

	res := Diff(logger, Dependencies(templateData), Dependencies(targetData))

	out, err := Apply(targetData, res.Dependencies)
	if err != nil {
		return Result{}, fmt.Errorf("failed to update %s: %w", targetPath, err)
	}
	if bytes.Equal(out, targetData) {
		return res, nil
	}

	info, err := os.Stat(targetPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat %s: %w", targetPath, err)
	}
	if err := os.WriteFile(targetPath, out, info.Mode().Perm()); err != nil {
		return Result{}, fmt.Errorf("failed to write %s: %w", targetPath, err)
	}
	return res, nil
}

// MergeNearest merges the manifests nearest to templateDir and targetDir.
func MergeNearest(logger *zerolog.Logger, templateDir, targetDir string) (Result, error) {
	templatePath, err := manifest.Find(templateDir)
	if err != nil {
		return Result{}, fmt.Errorf("template manifest: %w", err)
	}
	targetPath, err := manifest.Find(targetDir)
	if err != nil {
		return Result{}, fmt.Errorf("project manifest: %w", err)
	}
	return Merge(logger, templatePath, targetPath)
}

// Dependencies reads the "dependencies" map of a manifest in document order.
func Dependencies(data []byte) []Dependency {
	var deps []Dependency
	gjson.GetBytes(data, dependenciesKey).ForEach(func(key, value gjson.Result) bool {
		deps = append(deps, Dependency{Name: key.String(), Range: value.String()})
		return true
	})
	return deps
}

// Apply replaces the "dependencies" map of data with deps and returns the
// document re-indented with two spaces and a trailing newline.
// A manifest without dependencies does not gain an empty map.
func Apply(data []byte, deps []Dependency) ([]byte, error) {
	updated := data
	if len(deps) > 0 || gjson.GetBytes(data, dependenciesKey).Exists() {
		raw, err := encodeDependencies(deps)
		if err != nil {
			return nil, err
		}
		if updated, err = sjson.SetRawBytes(data, dependenciesKey, raw); err != nil {
			return nil, err
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, updated); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func encodeDependencies(deps []Dependency) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range deps {
		if i > 0 {
			buf.WriteByte(',')
		}
		for j, s := range []string{d.Name, d.Range} {
			encoded, err := marshalString(s)
			if err != nil {
				return nil, err
			}
			buf.Write(encoded)
			if j == 0 {
				buf.WriteByte(':')
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
