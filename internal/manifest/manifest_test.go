package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "views", "Home")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(`{"name":"app"}`), 0600))

	found, err := Find(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, FileName), found)
}

func TestFindStartsFromMissingPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(`{}`), 0600))

	found, err := Find(filepath.Join(root, "does", "not", "exist"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, FileName), found)
}

func TestFindPrefersNearest(t *testing.T) {
	root := t.TempDir()
	inner := filepath.Join(root, "packages", "ui")
	require.NoError(t, os.MkdirAll(inner, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(`{}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(inner, FileName), []byte(`{}`), 0600))

	found, err := Find(filepath.Join(inner, "index.js"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(inner, FileName), found)
}

func TestMain(t *testing.T) {
	dir := t.TempDir()
	withMain := filepath.Join(dir, "a.json")
	withoutMain := filepath.Join(dir, "b.json")
	broken := filepath.Join(dir, "c.json")
	require.NoError(t, os.WriteFile(withMain, []byte(`{"name":"x","main":"lib/index.js"}`), 0600))
	require.NoError(t, os.WriteFile(withoutMain, []byte(`{"name":"x"}`), 0600))
	require.NoError(t, os.WriteFile(broken, []byte(`{"name":`), 0600))

	main, err := Main(withMain)
	require.NoError(t, err)
	assert.Equal(t, "lib/index.js", main)

	main, err = Main(withoutMain)
	require.NoError(t, err)
	assert.Empty(t, main)

	_, err = Main(broken)
	assert.Error(t, err)
}
