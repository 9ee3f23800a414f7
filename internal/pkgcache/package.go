// Package pkgcache manages versioned template packages in the on-disk cache.
//
// A Package is a handle on one (name, version) pair. In cache mode it points at
// <StoreDir>/_<sanitized name>@<version>@<escaped name>; in local mode (no StoreDir) it
// points at TargetRoot and never installs anything.
package pkgcache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arcane-labs/arcane-cli/internal/manifest"
)

// LatestTag is the sentinel version resolved against the registry on Prepare.
const LatestTag = "latest"

var (
	// ErrInstall wraps a backend failure while installing a package.
	ErrInstall = errors.New("template install failed")
	// ErrUpdate wraps a backend failure while materializing a newer version.
	ErrUpdate = errors.New("template update failed")
)

// LatestResolver resolves the newest published version of a package.
type LatestResolver interface {
	Latest(ctx context.Context, name string) (string, error)
}

// Spec identifies a package by registry name and version.
type Spec struct {
	Name    string
	Version string
}

func (s Spec) String() string {
	return s.Name + "@" + s.Version
}

// Options describe where a Package lives.
type Options struct {
	// TargetRoot is the project root the package is used from. In local mode it
	// is also the package root.
	TargetRoot string
	// StoreDir is the cache directory. Empty selects local mode.
	StoreDir string
	Spec
}

// Package is a handle on one versioned package. Handles are cheap and built
// per operation; the directory they point at is the persistent cache.
type Package struct {
	Options

	logger      *zerolog.Logger
	resolver    LatestResolver
	backend     Backend
	lock        bool
	lockTimeout time.Duration
	prepared    bool
}

// Option configures a Package.
type Option func(*Package)

// WithLock serializes install and update of the same cache entry across
// processes with a lock file next to it.
func WithLock(timeout time.Duration) Option {
	return func(p *Package) {
		p.lock = true
		p.lockTimeout = timeout
	}
}

// New creates a Package handle. resolver and backend may be nil in local mode.
func New(logger *zerolog.Logger, opts Options, resolver LatestResolver, backend Backend, options ...Option) (*Package, error) {
	if opts.Name == "" {
		return nil, errors.New("package name is required")
	}
	if opts.TargetRoot == "" {
		return nil, errors.New("target root is required")
	}
	if opts.Version == "" {
		opts.Version = LatestTag
	}
	if opts.StoreDir != "" && (resolver == nil || backend == nil) {
		return nil, errors.New("cache mode requires a resolver and a backend")
	}

	p := &Package{
		Options:     opts,
		logger:      logger,
		resolver:    resolver,
		backend:     backend,
		lockTimeout: DefaultLockTimeout,
	}
	for _, o := range options {
		o(p)
	}
	return p, nil
}

// CacheMode reports whether the handle points into a cache directory.
func (p *Package) CacheMode() bool {
	return p.StoreDir != ""
}

// Prepare creates the cache directory and resolves the "latest" tag to a
// concrete version. It is idempotent.
func (p *Package) Prepare(ctx context.Context) error {
	if p.prepared || !p.CacheMode() {
		return nil
	}
	if err := os.MkdirAll(p.StoreDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", p.StoreDir, err)
	}
	if p.Version == LatestTag {
		latest, err := p.resolver.Latest(ctx, p.Name)
		if err != nil {
			return err
		}
		p.logger.Debug().Msgf("Resolved %s@%s to %s", p.Name, LatestTag, latest)
		p.Version = latest
	}
	p.prepared = true
	return nil
}

// Exists reports whether the package is present: its cache entry in cache
// mode, its target root in local mode.
func (p *Package) Exists(ctx context.Context) (bool, error) {
	if !p.CacheMode() {
		return pathExists(p.TargetRoot)
	}
	if err := p.Prepare(ctx); err != nil {
		return false, err
	}
	return pathExists(p.CachePath())
}

// Install materializes the current version into the cache. A failed install
// leaves whatever the backend produced in place.
func (p *Package) Install(ctx context.Context) error {
	if !p.CacheMode() {
		p.logger.Debug().Msgf("Local template at %s, nothing to install", p.TargetRoot)
		return nil
	}
	if err := p.Prepare(ctx); err != nil {
		return err
	}
	if err := p.materialize(ctx, p.Version); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInstall, p.Spec, err)
	}
	return nil
}

// Update moves the handle to the newest published version, installing it
// first when its cache entry is missing.
func (p *Package) Update(ctx context.Context) error {
	if !p.CacheMode() {
		p.logger.Debug().Msgf("Local template at %s, nothing to update", p.TargetRoot)
		return nil
	}
	if err := p.Prepare(ctx); err != nil {
		return err
	}

	latest, err := p.resolver.Latest(ctx, p.Name)
	if err != nil {
		return err
	}

	present, err := pathExists(p.CachePathFor(latest))
	if err != nil {
		return err
	}
	if present {
		p.logger.Debug().Msgf("%s@%s already cached", p.Name, latest)
	} else {
		p.logger.Info().Msgf("Updating %s to %s", p.Name, latest)
		if err := p.materialize(ctx, latest); err != nil {
			return fmt.Errorf("%w: %s@%s: %w", ErrUpdate, p.Name, latest, err)
		}
	}
	p.Version = latest
	return nil
}

// CachePath is the cache entry of the current version. Valid after Prepare.
func (p *Package) CachePath() string {
	return p.CachePathFor(p.Version)
}

// CachePathFor is the cache entry of the given version of this package.
func (p *Package) CachePathFor(version string) string {
	return filepath.Join(p.StoreDir, EntryName(p.Name, version))
}

// Root is the directory holding the package files: the cache entry in cache
// mode, the target root in local mode.
func (p *Package) Root() string {
	if p.CacheMode() {
		return p.CachePath()
	}
	return p.TargetRoot
}

// EntryPoint returns the absolute, forward-slash path of the "main" file
// declared by the nearest package.json at or above Root. ok is false when
// there is no manifest or it declares no main.
func (p *Package) EntryPoint() (path string, ok bool, err error) {
	manifestPath, err := manifest.Find(p.Root())
	if errors.Is(err, manifest.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	main, err := manifest.Main(manifestPath)
	if err != nil {
		return "", false, err
	}
	if main == "" {
		return "", false, nil
	}

	abs, err := filepath.Abs(filepath.Join(filepath.Dir(manifestPath), main))
	if err != nil {
		return "", false, err
	}
	return filepath.ToSlash(abs), true, nil
}

func (p *Package) materialize(ctx context.Context, version string) error {
	dest := p.CachePathFor(version)
	install := func() error {
		return p.backend.Install(ctx, Request{
			Root:     p.TargetRoot,
			StoreDir: p.StoreDir,
			Spec:     Spec{Name: p.Name, Version: version},
			Dest:     dest,
		})
	}
	if !p.lock {
		return install()
	}
	return withLock(ctx, p.logger, dest, p.lockTimeout, func() error {
		// Another process may have finished the same entry while we waited.
		if present, err := pathExists(dest); err == nil && present {
			return nil
		}
		return install()
	})
}

// EntryName is the cache directory name for a package version: the name with
// "/" replaced by "_", the version, then the name again with "/" escaped as
// "%2F". The result is a single path segment, and the escaped trailing name
// keeps it unique where the "_" replacement is lossy.
func EntryName(name, version string) string {
	return fmt.Sprintf("_%s@%s@%s", sanitize(name), version, strings.ReplaceAll(name, "/", scopeEscape))
}

const scopeEscape = "%2F"

func sanitize(name string) string {
	return strings.ReplaceAll(name, "/", "_")
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", path, err)
}
