package scaffold

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arcane-labs/arcane-cli/internal/catalog"
	"github.com/arcane-labs/arcane-cli/internal/depmerge"
	"github.com/arcane-labs/arcane-cli/internal/pkgcache"
	"github.com/arcane-labs/arcane-cli/internal/render"
)

// Job is one resolved template ready to be materialized.
type Job struct {
	Template     catalog.Template
	Package      *pkgcache.Package
	TemplateRoot string
	TargetPath   string
	Data         render.Data
	// Project is set for project-init jobs.
	Project *ProjectInfo
}

func (j Job) isProject() bool {
	return j.Project != nil
}

// Installer materializes a job into its target path.
type Installer interface {
	Install(ctx context.Context, job Job) error
}

// NormalInstaller copies the template root, renders it and merges its
// dependencies into the nearest project manifest.
type NormalInstaller struct {
	logger   *zerolog.Logger
	renderer *render.Renderer
}

func NewNormalInstaller(logger *zerolog.Logger, renderer *render.Renderer) *NormalInstaller {
	return &NormalInstaller{logger: logger, renderer: renderer}
}

func (n *NormalInstaller) Install(ctx context.Context, job Job) error {
	n.logger.Debug().Msgf("Copying %s to %s", job.TemplateRoot, job.TargetPath)
	if err := copyTree(job.TemplateRoot, job.TargetPath); err != nil {
		return fmt.Errorf("failed to copy template: %w", err)
	}

	if err := n.renderer.Render(ctx, job.TargetPath, job.Template.Ignore, job.Data); err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	// A new project's manifest is the template's own copy.
	if job.isProject() {
		return nil
	}

	result, err := depmerge.MergeNearest(n.logger, job.TemplateRoot, job.TargetPath)
	if err != nil {
		return fmt.Errorf("failed to merge template dependencies: %w", err)
	}
	if len(result.Added) > 0 {
		n.logger.Info().Msgf("Added %d dependencies to package.json, run your package manager to install them", len(result.Added))
	}
	return nil
}

// CustomInstaller hands the job to the entry point declared by the template
// package.
type CustomInstaller struct {
	logger *zerolog.Logger
	runner Runner
}

func NewCustomInstaller(logger *zerolog.Logger, runner Runner) *CustomInstaller {
	return &CustomInstaller{logger: logger, runner: runner}
}

type templateOptions struct {
	TemplatePath       string           `json:"templatePath"`
	TargetPath         string           `json:"targetPath"`
	TemplateDescriptor catalog.Template `json:"templateDescriptor"`
}

type projectOptions struct {
	TemplateInfo catalog.Template `json:"templateInfo"`
	ProjectInfo  ProjectInfo      `json:"projectInfo"`
	SourcePath   string           `json:"sourcePath"`
	TargetPath   string           `json:"targetPath"`
}

func (c *CustomInstaller) Install(_ context.Context, job Job) error {
	entry, ok, err := job.Package.EntryPoint()
	if err != nil {
		return fmt.Errorf("failed to read entry point of %s: %w", job.Template.NpmName, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrCustomEntryMissing, job.Template.NpmName)
	}

	var options any
	if job.isProject() {
		options = projectOptions{
			TemplateInfo: job.Template,
			ProjectInfo:  *job.Project,
			SourcePath:   filepath.ToSlash(job.TemplateRoot),
			TargetPath:   filepath.ToSlash(job.TargetPath),
		}
	} else {
		options = templateOptions{
			TemplatePath:       filepath.ToSlash(job.TemplateRoot),
			TargetPath:         filepath.ToSlash(job.TargetPath),
			TemplateDescriptor: job.Template,
		}
	}

	c.logger.Debug().Msgf("Delegating install of %s to %s", job.Template.NpmName, entry)
	return c.runner.Run(entry, options)
}

// copyTree copies directories and regular files from src into dst, creating
// dst when absent. Existing files are overwritten.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		case info.Mode().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		default:
			return nil
		}
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
