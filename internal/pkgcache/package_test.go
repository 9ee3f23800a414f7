package pkgcache_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcane-labs/arcane-cli/internal/pkgcache"
	"github.com/arcane-labs/arcane-cli/internal/testutil"
)

const pageTemplate = "arcane-template-page-vue2"

var templateFiles = map[string]string{
	"package.json":             `{"name":"arcane-template-page-vue2","main":"lib/index.js","dependencies":{"vue":"^2.6.0"}}`,
	"lib/index.js":             "module.exports = function () {}",
	"template/page/index.vue":  "<template><div><%= .name %></div></template>",
	"template/page/README.md":  "# <%= .name %>",
	"template/section/foo.vue": "<template></template>",
}

type countingResolver struct {
	version string
	err     error
	calls   atomic.Int32
}

func (r *countingResolver) Latest(_ context.Context, _ string) (string, error) {
	r.calls.Add(1)
	return r.version, r.err
}

func newCachedPackage(t *testing.T, version string, resolver pkgcache.LatestResolver, backend pkgcache.Backend, opts ...pkgcache.Option) *pkgcache.Package {
	t.Helper()
	pkg, err := pkgcache.New(testutil.NewTestLogger(), pkgcache.Options{
		TargetRoot: t.TempDir(),
		StoreDir:   filepath.Join(t.TempDir(), "node_modules"),
		Spec:       pkgcache.Spec{Name: pageTemplate, Version: version},
	}, resolver, backend, opts...)
	require.NoError(t, err)
	return pkg
}

func TestEntryName(t *testing.T) {
	assert.Equal(t, "_arcane-template-page-vue2@1.0.1@arcane-template-page-vue2", pkgcache.EntryName(pageTemplate, "1.0.1"))
	assert.Equal(t, "_@arcane_section@0.2.0@@arcane%2Fsection", pkgcache.EntryName("@arcane/section", "0.2.0"))

	// Same input, same entry.
	assert.Equal(t, pkgcache.EntryName("a", "1.0.0"), pkgcache.EntryName("a", "1.0.0"))

	inputs := []pkgcache.Spec{
		{Name: "a", Version: "1.0.0"},
		{Name: "a", Version: "1.0.1"},
		{Name: "b", Version: "1.0.0"},
		{Name: "a_b", Version: "1.0.0"},
		{Name: "@a/b", Version: "1.0.0"},
		{Name: "@a_b", Version: "1.0.0"},
	}
	seen := map[string]pkgcache.Spec{}
	for _, in := range inputs {
		name := pkgcache.EntryName(in.Name, in.Version)
		prev, dup := seen[name]
		assert.False(t, dup, "%v and %v share entry %s", prev, in, name)
		seen[name] = in

		parsed, ok := pkgcache.ParseEntryName(name)
		require.True(t, ok, name)
		assert.Equal(t, in, parsed)
	}
}

func TestParseEntryNameRejectsForeignNames(t *testing.T) {
	for _, name := range []string{"", "foo", "_foo", "_foo@@foo", ".staging-123", "_@arcane_section@0.2.0@@arcane", "_a@1.0.0@b"} {
		_, ok := pkgcache.ParseEntryName(name)
		assert.False(t, ok, name)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	logger := testutil.NewTestLogger()

	_, err := pkgcache.New(logger, pkgcache.Options{TargetRoot: "/tmp"}, nil, nil)
	assert.Error(t, err)

	_, err = pkgcache.New(logger, pkgcache.Options{Spec: pkgcache.Spec{Name: "x"}}, nil, nil)
	assert.Error(t, err)

	_, err = pkgcache.New(logger, pkgcache.Options{TargetRoot: "/tmp", StoreDir: "/tmp/store", Spec: pkgcache.Spec{Name: "x"}}, nil, nil)
	assert.Error(t, err)

	pkg, err := pkgcache.New(logger, pkgcache.Options{TargetRoot: "/tmp", Spec: pkgcache.Spec{Name: "x"}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, pkgcache.LatestTag, pkg.Version)
}

func TestPrepareResolvesLatestOnce(t *testing.T) {
	resolver := &countingResolver{version: "1.0.2"}
	pkg := newCachedPackage(t, pkgcache.LatestTag, resolver, &testutil.FakeBackend{})

	require.NoError(t, pkg.Prepare(context.Background()))
	require.NoError(t, pkg.Prepare(context.Background()))

	assert.Equal(t, "1.0.2", pkg.Version)
	assert.EqualValues(t, 1, resolver.calls.Load())
	assert.DirExists(t, pkg.StoreDir)
	assert.Equal(t, filepath.Join(pkg.StoreDir, pkgcache.EntryName(pageTemplate, "1.0.2")), pkg.CachePath())
}

func TestPrepareKeepsConcreteVersion(t *testing.T) {
	resolver := &countingResolver{version: "9.9.9"}
	pkg := newCachedPackage(t, "1.0.0", resolver, &testutil.FakeBackend{})

	require.NoError(t, pkg.Prepare(context.Background()))
	assert.Equal(t, "1.0.0", pkg.Version)
	assert.Zero(t, resolver.calls.Load())
}

func TestPrepareRegistryFailure(t *testing.T) {
	registryErr := errors.New("registry lookup failed")
	pkg := newCachedPackage(t, pkgcache.LatestTag, &countingResolver{err: registryErr}, &testutil.FakeBackend{})

	_, err := pkg.Exists(context.Background())
	assert.ErrorIs(t, err, registryErr)
}

func TestInstallThenExists(t *testing.T) {
	backend := &testutil.FakeBackend{Files: templateFiles}
	pkg := newCachedPackage(t, "1.0.1", &countingResolver{version: "1.0.1"}, backend)
	ctx := context.Background()

	exists, err := pkg.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, pkg.Install(ctx))

	exists, err = pkg.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, pkg.CachePath(), calls[0].Dest)
	assert.Equal(t, pkgcache.Spec{Name: pageTemplate, Version: "1.0.1"}, calls[0].Spec)
	assert.Equal(t, pkg.TargetRoot, calls[0].Root)
	assert.FileExists(t, filepath.Join(pkg.CachePath(), "template", "page", "index.vue"))
}

func TestInstallFailure(t *testing.T) {
	backendErr := errors.New("network down")
	pkg := newCachedPackage(t, "1.0.1", &countingResolver{}, &testutil.FakeBackend{Err: backendErr})

	err := pkg.Install(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgcache.ErrInstall)
	assert.ErrorIs(t, err, backendErr)
}

func TestUpdateSkipsInstallWhenLatestCached(t *testing.T) {
	backend := &testutil.FakeBackend{Files: templateFiles}
	pkg := newCachedPackage(t, "1.0.1", &countingResolver{version: "1.0.1"}, backend)
	ctx := context.Background()

	require.NoError(t, pkg.Install(ctx))
	require.Len(t, backend.Calls(), 1)

	require.NoError(t, pkg.Update(ctx))
	assert.Len(t, backend.Calls(), 1)
	assert.Equal(t, "1.0.1", pkg.Version)
}

func TestUpdateInstallsNewerVersion(t *testing.T) {
	backend := &testutil.FakeBackend{
		Files:     templateFiles,
		ByVersion: map[string]map[string]string{"1.1.0": {"package.json": `{"name":"x","version":"1.1.0"}`}},
	}
	resolver := &countingResolver{version: "1.0.1"}
	pkg := newCachedPackage(t, "1.0.1", resolver, backend)
	ctx := context.Background()

	require.NoError(t, pkg.Install(ctx))
	oldPath := pkg.CachePath()

	resolver.version = "1.1.0"
	require.NoError(t, pkg.Update(ctx))

	calls := backend.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "1.1.0", calls[1].Version)
	assert.Equal(t, "1.1.0", pkg.Version)
	assert.NotEqual(t, oldPath, pkg.CachePath())
	assert.DirExists(t, oldPath)
	assert.FileExists(t, filepath.Join(pkg.CachePath(), "package.json"))
}

func TestUpdateFailure(t *testing.T) {
	backendErr := errors.New("disk full")
	resolver := &countingResolver{version: "2.0.0"}
	pkg := newCachedPackage(t, "1.0.0", resolver, &testutil.FakeBackend{Err: backendErr})

	err := pkg.Update(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgcache.ErrUpdate)
	assert.Equal(t, "1.0.0", pkg.Version)
}

func TestEntryPoint(t *testing.T) {
	pkg := newCachedPackage(t, "1.0.1", &countingResolver{}, &testutil.FakeBackend{Files: templateFiles})
	require.NoError(t, pkg.Install(context.Background()))

	entry, ok, err := pkg.EntryPoint()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, filepath.IsAbs(filepath.FromSlash(entry)))
	assert.NotContains(t, entry, `\`)
	assert.True(t, strings.HasSuffix(entry, "/lib/index.js"), entry)
	assert.Equal(t, filepath.ToSlash(filepath.Join(pkg.CachePath(), "lib", "index.js")), entry)
}

func TestEntryPointWithoutMain(t *testing.T) {
	pkg := newCachedPackage(t, "1.0.1", &countingResolver{}, &testutil.FakeBackend{
		Files: map[string]string{"package.json": `{"name":"plain"}`},
	})
	require.NoError(t, pkg.Install(context.Background()))

	_, ok, err := pkg.EntryPoint()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalMode(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteTree(t, root, templateFiles)

	pkg, err := pkgcache.New(testutil.NewTestLogger(), pkgcache.Options{
		TargetRoot: root,
		Spec:       pkgcache.Spec{Name: pageTemplate},
	}, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	assert.False(t, pkg.CacheMode())
	assert.Equal(t, root, pkg.Root())

	exists, err := pkg.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, pkg.Install(ctx))
	require.NoError(t, pkg.Update(ctx))
	assert.Equal(t, pkgcache.LatestTag, pkg.Version)

	entry, ok, err := pkg.EntryPoint()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.ToSlash(filepath.Join(root, "lib", "index.js")), entry)

	missing, err := pkgcache.New(testutil.NewTestLogger(), pkgcache.Options{
		TargetRoot: filepath.Join(root, "nope"),
		Spec:       pkgcache.Spec{Name: pageTemplate},
	}, nil, nil)
	require.NoError(t, err)
	exists, err = missing.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInstallWithLock(t *testing.T) {
	backend := &testutil.FakeBackend{Files: templateFiles}
	pkg := newCachedPackage(t, "1.0.1", &countingResolver{}, backend, pkgcache.WithLock(5*time.Second))
	ctx := context.Background()

	require.NoError(t, pkg.Install(ctx))
	assert.FileExists(t, pkgcache.LockPath(pkg.CachePath()))
	assert.Len(t, backend.Calls(), 1)

	// A locked install of an entry that is already present does not reinstall.
	require.NoError(t, pkg.Install(ctx))
	assert.Len(t, backend.Calls(), 1)
}

func TestListAndRemove(t *testing.T) {
	store := t.TempDir()
	testutil.MustWriteTree(t, filepath.Join(store, pkgcache.EntryName("b-template", "1.0.0")), map[string]string{"package.json": "{}"})
	testutil.MustWriteTree(t, filepath.Join(store, pkgcache.EntryName("a-template", "2.0.0")), map[string]string{"package.json": "{}"})
	testutil.MustWriteTree(t, filepath.Join(store, pkgcache.EntryName("a-template", "1.0.0")), map[string]string{"package.json": "{}"})
	testutil.MustWriteTree(t, filepath.Join(store, pkgcache.EntryName("@arcane/section", "0.2.0")), map[string]string{"package.json": "{}"})
	require.NoError(t, os.MkdirAll(filepath.Join(store, ".staging-abc"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(store, "_stray.lock"), nil, 0600))

	entries, err := pkgcache.List(store)
	require.NoError(t, err)

	var specs []string
	for _, e := range entries {
		specs = append(specs, e.String())
		assert.DirExists(t, e.Path)
	}
	assert.Equal(t, []string{"@arcane/section@0.2.0", "a-template@1.0.0", "a-template@2.0.0", "b-template@1.0.0"}, specs)

	removed, err := pkgcache.Remove(store, "a-template")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = pkgcache.Remove(store, "@arcane/section")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoDirExists(t, filepath.Join(store, "_@arcane_section@0.2.0@@arcane%2Fsection"))

	entries, err = pkgcache.List(store)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b-template", entries[0].Name)

	removed, err = pkgcache.Remove(store, "")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err = pkgcache.List(filepath.Join(store, "missing"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDiskUsage(t *testing.T) {
	dir := t.TempDir()
	testutil.MustWriteTree(t, dir, map[string]string{
		"package.json":       "{}",
		"template/index.vue": "<template></template>",
	})

	size, err := pkgcache.DiskUsage(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(len("{}")+len("<template></template>")), size)

	_, err = pkgcache.DiskUsage(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
