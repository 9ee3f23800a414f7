package depmerge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcane-labs/arcane-cli/internal/testutil"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "package.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestDiffConflictKeepsTarget(t *testing.T) {
	logger, buf := testutil.NewBufferedLogger()

	res := Diff(logger,
		[]Dependency{{Name: "a", Range: "^1.0.0"}},
		[]Dependency{{Name: "a", Range: "^2.0.0"}},
	)

	assert.Equal(t, []Dependency{{Name: "a", Range: "^2.0.0"}}, res.Dependencies)
	assert.Empty(t, res.Added)
	assert.Equal(t, []Conflict{{Name: "a", Template: "^1.0.0", Target: "^2.0.0"}}, res.Conflicts)

	warnings := testutil.EntriesAt(buf, zerolog.WarnLevel)
	require.Len(t, warnings, 1)
	assert.Equal(t, "a", warnings[0]["dependency"])
	assert.Equal(t, "^1.0.0", warnings[0]["template"])
	assert.Equal(t, "^2.0.0", warnings[0]["target"])
}

func TestDiffAddsNewDependency(t *testing.T) {
	logger, buf := testutil.NewBufferedLogger()

	res := Diff(logger, []Dependency{{Name: "b", Range: "^1.2.0"}}, nil)

	assert.Equal(t, []Dependency{{Name: "b", Range: "^1.2.0"}}, res.Dependencies)
	assert.Equal(t, []Dependency{{Name: "b", Range: "^1.2.0"}}, res.Added)
	assert.Empty(t, res.Conflicts)
	assert.Empty(t, testutil.EntriesAt(buf, zerolog.WarnLevel))
}

func TestDiffOrdering(t *testing.T) {
	logger := testutil.NewTestLogger()

	res := Diff(logger,
		[]Dependency{{Name: "z", Range: "^1.0.0"}, {Name: "vue", Range: "^2.6.0"}, {Name: "axios", Range: "^0.21.0"}, {Name: "z", Range: "^9.0.0"}},
		[]Dependency{{Name: "vue", Range: "^2.6.14"}, {Name: "core-js", Range: "^3.6.5"}},
	)

	assert.Equal(t, []Dependency{
		{Name: "vue", Range: "^2.6.14"},
		{Name: "core-js", Range: "^3.6.5"},
		{Name: "z", Range: "^1.0.0"},
		{Name: "axios", Range: "^0.21.0"},
	}, res.Dependencies)
	assert.Empty(t, res.Conflicts)
}

func TestMergeRewritesOnlyDependencies(t *testing.T) {
	logger := testutil.NewTestLogger()
	root := t.TempDir()

	templatePath := writeManifest(t, filepath.Join(root, "cache"), `{
  "name": "arcane-template-page-vue2",
  "dependencies": {"vue": "^2.6.0", "element-ui": "^2.15.0", "a": "^1.0.0"}
}`)
	targetPath := writeManifest(t, filepath.Join(root, "project"), `{"name":"my-app","version":"0.1.0","scripts":{"serve":"vue-cli-service serve","build":"x && y < z"},"dependencies":{"a":"^2.0.0","vue":"^2.6.11"},"devDependencies":{"eslint":"^6.7.2"}}`)

	res, err := Merge(logger, templatePath, targetPath)
	require.NoError(t, err)

	assert.Equal(t, []Dependency{{Name: "element-ui", Range: "^2.15.0"}}, res.Added)
	assert.Equal(t, []Conflict{{Name: "a", Template: "^1.0.0", Target: "^2.0.0"}}, res.Conflicts)

	want := `{
  "name": "my-app",
  "version": "0.1.0",
  "scripts": {
    "serve": "vue-cli-service serve",
    "build": "x && y < z"
  },
  "dependencies": {
    "a": "^2.0.0",
    "vue": "^2.6.11",
    "element-ui": "^2.15.0"
  },
  "devDependencies": {
    "eslint": "^6.7.2"
  }
}
`
	assert.Equal(t, want, readFile(t, targetPath))
	assert.Equal(t, `{
  "name": "arcane-template-page-vue2",
  "dependencies": {"vue": "^2.6.0", "element-ui": "^2.15.0", "a": "^1.0.0"}
}`, readFile(t, templatePath))
}

func TestMergeIsIdempotent(t *testing.T) {
	logger := testutil.NewTestLogger()
	root := t.TempDir()
	templatePath := writeManifest(t, filepath.Join(root, "cache"), `{"dependencies":{"a":"^1.0.0","b":"^1.2.0"}}`)
	targetPath := writeManifest(t, filepath.Join(root, "project"), `{"name":"app","dependencies":{"a":"^2.0.0"}}`)

	first, err := Merge(logger, templatePath, targetPath)
	require.NoError(t, err)
	afterFirst := readFile(t, targetPath)

	second, err := Merge(logger, templatePath, targetPath)
	require.NoError(t, err)

	assert.Equal(t, afterFirst, readFile(t, targetPath))
	assert.Equal(t, first.Conflicts, second.Conflicts)
	assert.Equal(t, first.Dependencies, second.Dependencies)
	assert.Empty(t, second.Added)
}

func TestMergeWithoutTargetDependencies(t *testing.T) {
	logger := testutil.NewTestLogger()
	root := t.TempDir()

	emptyTemplate := writeManifest(t, filepath.Join(root, "empty"), `{"name":"t"}`)
	target := writeManifest(t, filepath.Join(root, "project"), `{"name":"app"}`)

	_, err := Merge(logger, emptyTemplate, target)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"app\"\n}\n", readFile(t, target))

	template := writeManifest(t, filepath.Join(root, "cache"), `{"dependencies":{"b":"^1.2.0"}}`)
	_, err = Merge(logger, template, target)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"app\",\n  \"dependencies\": {\n    \"b\": \"^1.2.0\"\n  }\n}\n", readFile(t, target))
}

func TestMergeNearest(t *testing.T) {
	logger := testutil.NewTestLogger()
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "cache"), `{"dependencies":{"b":"^1.2.0"}}`)
	target := writeManifest(t, filepath.Join(root, "project"), `{"dependencies":{}}`)

	templateDir := filepath.Join(root, "cache", "template", "src", "views", "Home")
	targetDir := filepath.Join(root, "project", "src", "views", "Home")
	require.NoError(t, os.MkdirAll(templateDir, 0755))
	require.NoError(t, os.MkdirAll(targetDir, 0755))

	res, err := MergeNearest(logger, templateDir, targetDir)
	require.NoError(t, err)
	assert.Len(t, res.Added, 1)
	assert.Contains(t, readFile(t, target), `"b": "^1.2.0"`)
}

func TestMergeInvalidManifest(t *testing.T) {
	logger := testutil.NewTestLogger()
	root := t.TempDir()
	template := writeManifest(t, filepath.Join(root, "cache"), `{"dependencies":{}}`)
	target := writeManifest(t, filepath.Join(root, "project"), `{"name":`)

	_, err := Merge(logger, template, target)
	assert.Error(t, err)
	assert.Equal(t, `{"name":`, readFile(t, target))
}
