// Package render substitutes variables into a copied template tree in place.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"text/template"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gobwas/glob"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// LeftDelim and RightDelim mark template actions. They stay clear of the
	// "{{ }}" interpolation used inside Vue single-file components.
	LeftDelim  = "<%="
	RightDelim = "%>"
)

// Data is the variable bag a tree is rendered against.
type Data map[string]any

// Renderer renders every text file of a directory tree concurrently.
type Renderer struct {
	logger      *zerolog.Logger
	leftDelim   string
	rightDelim  string
	concurrency int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithDelims overrides the action delimiters.
func WithDelims(left, right string) Option {
	return func(r *Renderer) {
		r.leftDelim = left
		r.rightDelim = right
	}
}

// WithConcurrency bounds the number of files rendered at once.
func WithConcurrency(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func New(logger *zerolog.Logger, opts ...Option) *Renderer {
	r := &Renderer{
		logger:      logger,
		leftDelim:   LeftDelim,
		rightDelim:  RightDelim,
		concurrency: 4 * runtime.NumCPU(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render rewrites every non-ignored text file under root with data applied.
// Ignore patterns are globs ("**" crosses directories) matched against the
// slash-separated path relative to root. A reference to a missing variable is
// an error. The first failure is returned once all started renders finished;
// files already rewritten stay rewritten.
func (r *Renderer) Render(ctx context.Context, root string, ignore []string, data Data) error {
	files, err := Files(root, ignore)
	if err != nil {
		return err
	}
	r.logger.Debug().Strs("files", files).Msgf("Rendering %d files under %s", len(files), root)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return r.renderFile(filepath.Join(root, filepath.FromSlash(rel)), rel, data)
		})
	}
	return g.Wait()
}

// Files lists the regular files under root that do not match any ignore
// pattern, as sorted slash-separated relative paths.
func Files(root string, ignore []string) ([]string, error) {
	matchers, err := compile(ignore)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, m := range matchers {
			if m.Match(rel) {
				return nil
			}
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list template files under %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func compile(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		m, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

func (r *Renderer) renderFile(path, rel string, data Data) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", rel, err)
	}
	if info.Size() == 0 {
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", rel, err)
	}
	if !IsText(content) {
		r.logger.Debug().Msgf("Skipping binary file %s", rel)
		return nil
	}

	tmpl, err := template.New(rel).
		Delims(r.leftDelim, r.rightDelim).
		Funcs(data.funcs()).
		Option("missingkey=error").
		Parse(string(content))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", rel, err)
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, map[string]any(data)); err != nil {
		return fmt.Errorf("failed to render %s: %w", rel, err)
	}
	if bytes.Equal(out.Bytes(), content) {
		return nil
	}
	if err := os.WriteFile(path, out.Bytes(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// funcs exposes every key as a zero-argument function, so templates may write
// the bare "<%= name %>" form as well as "<%= .name %>".
func (d Data) funcs() template.FuncMap {
	fm := make(template.FuncMap, len(d))
	for key, value := range d {
		if !isIdentifier(key) {
			continue
		}
		fm[key] = func() any { return value }
	}
	return fm
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', unicode.IsLetter(c):
		case i > 0 && unicode.IsDigit(c):
		default:
			return false
		}
	}
	return true
}

// IsText reports whether content is detected as a text format.
func IsText(content []byte) bool {
	for m := mimetype.Detect(content); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
