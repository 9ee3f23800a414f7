package pkgcache

import "context"

// Request asks a Backend to materialize one package version at Dest.
type Request struct {
	// Root is the project the install was started from.
	Root string
	// StoreDir is the cache directory Dest lives in.
	StoreDir string
	Spec
	// Dest is the cache entry the package files must end up in.
	Dest string
}

// Backend installs package versions into the cache.
type Backend interface {
	Install(ctx context.Context, req Request) error
}

// BackendFunc adapts a function to a Backend.
type BackendFunc func(ctx context.Context, req Request) error

func (f BackendFunc) Install(ctx context.Context, req Request) error {
	return f(ctx, req)
}
