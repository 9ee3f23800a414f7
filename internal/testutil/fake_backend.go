package testutil

import (
	"context"
	"sync"

	"github.com/arcane-labs/arcane-cli/internal/pkgcache"
)

// FakeBackend "installs" packages by writing a fixed file tree into the
// requested cache entry.
type FakeBackend struct {
	mu sync.Mutex

	// Files is written into every install, keyed by slash-separated path.
	Files map[string]string
	// ByVersion overrides Files for specific versions.
	ByVersion map[string]map[string]string
	// Err fails every install when set.
	Err error

	calls []pkgcache.Request
}

func (f *FakeBackend) Install(_ context.Context, req pkgcache.Request) error {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}
	files := f.Files
	if v, ok := f.ByVersion[req.Version]; ok {
		files = v
	}
	return WriteTree(req.Dest, files)
}

// Calls returns the requests received so far.
func (f *FakeBackend) Calls() []pkgcache.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pkgcache.Request(nil), f.calls...)
}

// StaticResolver always resolves to Version, or fails with Err.
type StaticResolver struct {
	Version string
	Err     error
}

func (r StaticResolver) Latest(_ context.Context, _ string) (string, error) {
	return r.Version, r.Err
}
