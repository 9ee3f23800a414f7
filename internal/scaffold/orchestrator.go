// Package scaffold installs page, section and project templates: it resolves
// the template package, makes sure it is cached, then either copies, renders
// and merges it or hands it to the package's own installer.
package scaffold

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arcane-labs/arcane-cli/internal/catalog"
	"github.com/arcane-labs/arcane-cli/internal/config"
	"github.com/arcane-labs/arcane-cli/internal/pkgcache"
	"github.com/arcane-labs/arcane-cli/internal/render"
)

const (
	templateDirName   = "template"
	componentsDirName = "components"
)

// Progress reports long-running steps. ui.Spinner implements it.
type Progress interface {
	Start(message string)
	Stop()
}

type noProgress struct{}

func (noProgress) Start(string) {}
func (noProgress) Stop()        {}

// Orchestrator runs the install flows for one CLI invocation.
type Orchestrator struct {
	logger   *zerolog.Logger
	cfg      *config.Config
	resolver pkgcache.LatestResolver
	backend  pkgcache.Backend
	normal   Installer
	custom   Installer
	progress Progress
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRunner replaces the process runner used for custom templates.
func WithRunner(r Runner) Option {
	return func(o *Orchestrator) {
		o.custom = NewCustomInstaller(o.logger, r)
	}
}

// WithProgress shows cache installs and updates through p.
func WithProgress(p Progress) Option {
	return func(o *Orchestrator) {
		o.progress = p
	}
}

// New creates an Orchestrator. resolver and backend are unused in local
// template mode.
func New(logger *zerolog.Logger, cfg *config.Config, resolver pkgcache.LatestResolver, backend pkgcache.Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:   logger,
		cfg:      cfg,
		resolver: resolver,
		backend:  backend,
		normal:   NewNormalInstaller(logger, render.New(logger)),
		custom:   NewCustomInstaller(logger, NewProcessRunner(logger, cfg.NodeBinary, cfg.WorkDir)),
		progress: noProgress{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AddPage installs tmpl into <WorkDir>/<pageName> and returns that path.
func (o *Orchestrator) AddPage(ctx context.Context, tmpl catalog.Template, pageName string) (string, error) {
	tmpl.PageName = pageName
	targetPath := filepath.Join(o.cfg.WorkDir, pageName)
	if err := ensureAbsent(targetPath); err != nil {
		return "", err
	}

	job, err := o.prepare(ctx, tmpl, targetPath)
	if err != nil {
		return "", err
	}
	job.Data = render.Data{"name": strings.ToLower(pageName)}

	if err := o.installer(tmpl).Install(ctx, job); err != nil {
		return "", err
	}
	return targetPath, nil
}

// AddSection installs tmpl into <dir of SourceFile>/components/<Pascal name>,
// then references it from SourceFile. The line number and source file are
// checked before anything is written.
func (o *Orchestrator) AddSection(ctx context.Context, tmpl catalog.Template, req SectionRequest) (string, error) {
	sourceFile := req.SourceFile
	if !filepath.IsAbs(sourceFile) {
		sourceFile = filepath.Join(o.cfg.WorkDir, sourceFile)
	}
	source, err := readSourceLines(sourceFile)
	if err != nil {
		return "", fmt.Errorf("failed to read source file: %w", err)
	}
	spliced, found, err := SpliceSection(source.lines, req.Name, req.Line)
	if err != nil {
		return "", err
	}

	tmpl.SectionName = req.Name
	tmpl.SourceFile = filepath.ToSlash(sourceFile)
	tmpl.LineNumber = req.Line
	targetPath := filepath.Join(filepath.Dir(sourceFile), componentsDirName, ComponentName(req.Name))
	if err := ensureAbsent(targetPath); err != nil {
		return "", err
	}

	job, err := o.prepare(ctx, tmpl, targetPath)
	if err != nil {
		return "", err
	}
	job.Data = render.Data{"name": strings.ToLower(req.Name)}

	if err := o.installer(tmpl).Install(ctx, job); err != nil {
		return "", err
	}

	if !found {
		o.logger.Warn().Msgf("No %s line in %s, add the import for %s yourself", scriptOpenTag, sourceFile, ComponentName(req.Name))
	}
	if err := source.write(sourceFile, spliced); err != nil {
		return "", fmt.Errorf("failed to update source file: %w", err)
	}
	return targetPath, nil
}

// InitProject installs a project template into <WorkDir>/<ProjectName>. Any
// existing entry there is a collision; force reuses an existing directory.
func (o *Orchestrator) InitProject(ctx context.Context, tmpl catalog.Template, info ProjectInfo, force bool) (string, error) {
	targetPath := filepath.Join(o.cfg.WorkDir, info.ProjectName)
	if err := ensureAbsent(targetPath); err != nil {
		if !force || !isDir(targetPath) {
			return "", err
		}
		o.logger.Warn().Msgf("Installing into existing directory %s", targetPath)
	}

	job, err := o.prepare(ctx, tmpl, targetPath)
	if err != nil {
		return "", err
	}
	job.Project = &info
	job.Data = info.Data()

	if err := o.installer(tmpl).Install(ctx, job); err != nil {
		return "", err
	}
	return targetPath, nil
}

func (o *Orchestrator) installer(tmpl catalog.Template) Installer {
	if tmpl.InstallType() == catalog.TypeCustom {
		return o.custom
	}
	return o.normal
}

// prepare makes the template package present and locates its template root.
func (o *Orchestrator) prepare(ctx context.Context, tmpl catalog.Template, targetPath string) (Job, error) {
	pkg, err := o.Acquire(ctx, tmpl)
	if err != nil {
		return Job{}, err
	}
	tmpl.Version = pkg.Version

	root := filepath.Join(pkg.Root(), templateDirName, filepath.FromSlash(tmpl.TargetPath))
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return Job{}, fmt.Errorf("%w: %s", ErrTemplateMissing, root)
	}

	return Job{
		Template:     tmpl,
		Package:      pkg,
		TemplateRoot: root,
		TargetPath:   targetPath,
	}, nil
}

// Acquire returns a handle on the template package, installing it when it is
// not cached and updating it otherwise. With a local template path the handle
// points there and nothing is downloaded.
func (o *Orchestrator) Acquire(ctx context.Context, tmpl catalog.Template) (*pkgcache.Package, error) {
	spec := pkgcache.Spec{Name: tmpl.NpmName, Version: tmpl.Version}

	if o.cfg.LocalMode() {
		o.logger.Debug().Msgf("Using local template %s at %s", spec, o.cfg.TemplatePath)
		return pkgcache.New(o.logger, pkgcache.Options{TargetRoot: o.cfg.TemplatePath, Spec: spec}, nil, nil)
	}

	var opts []pkgcache.Option
	if o.cfg.LockCache {
		opts = append(opts, pkgcache.WithLock(o.cfg.LockTimeout))
	}
	pkg, err := pkgcache.New(o.logger, pkgcache.Options{
		TargetRoot: o.cfg.TargetRoot,
		StoreDir:   o.cfg.StoreDir,
		Spec:       spec,
	}, o.resolver, o.backend, opts...)
	if err != nil {
		return nil, err
	}

	exists, err := pkg.Exists(ctx)
	if err != nil {
		return nil, err
	}

	if !exists {
		o.progress.Start(fmt.Sprintf("Downloading template %s...", pkg.Spec))
		err = pkg.Install(ctx)
	} else {
		o.progress.Start(fmt.Sprintf("Updating template %s...", pkg.Name))
		err = pkg.Update(ctx)
	}
	o.progress.Stop()
	if err != nil {
		return nil, err
	}
	o.logger.Debug().Msgf("Template %s ready at %s", pkg.Spec, pkg.CachePath())
	return pkg, nil
}

func ensureAbsent(path string) error {
	_, err := os.Lstat(path)
	if err == nil {
		return fmt.Errorf("%w: %s", ErrCollision, path)
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to stat %s: %w", path, err)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
