package scaffold

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcane-labs/arcane-cli/internal/validation"
)

func TestSpliceSection(t *testing.T) {
	lines := []string{"<template>", "<script>", "export default {}", "</script>"}

	out, found, err := SpliceSection(lines, "foo", 0)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{
		"<foo></foo>",
		"<template>",
		"<script>",
		"import Foo from './components/Foo/index.vue'",
		"export default {}",
		"</script>",
	}, out)
	assert.Len(t, lines, 4, "input must not be modified")
}

func TestSpliceSectionAfterScript(t *testing.T) {
	lines := []string{"<template>", "  <div>", "  </div>", "</template>", "<script>", "</script>"}

	out, found, err := SpliceSection(lines, "HeroBanner", 2)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{
		"<template>",
		"  <div>",
		"<hero-banner></hero-banner>",
		"  </div>",
		"</template>",
		"<script>",
		"import HeroBanner from './components/HeroBanner/index.vue'",
		"</script>",
	}, out)
}

func TestSpliceSectionAtEnd(t *testing.T) {
	out, _, err := SpliceSection([]string{"<script>", "</script>"}, "foo", 2)
	require.NoError(t, err)
	assert.Equal(t, "<foo></foo>", out[len(out)-1])
}

func TestSpliceSectionScriptMatchIsExact(t *testing.T) {
	lines := []string{"<template>", "<script setup>", "  <script>", "</script>"}
	out, found, err := SpliceSection(lines, "foo", 1)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, []string{"<template>", "<foo></foo>", "<script setup>", "  <script>", "</script>"}, out)
}

func TestSpliceSectionOutOfRange(t *testing.T) {
	lines := []string{"<template>", "<script>"}
	for _, line := range []int{-1, 3, 100} {
		_, _, err := SpliceSection(lines, "foo", line)
		var verr *validation.ValidationError
		require.True(t, errors.As(err, &verr), "line %d", line)
		assert.Equal(t, "line", verr.Field)
	}
}

func TestSourceLinesRoundTrip(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"unix.vue":     "<template>\n<script>\n</script>\n",
		"windows.vue":  "<template>\r\n<script>\r\n</script>\r\n",
		"no-final.vue": "<template>\n<script>",
		"empty.vue":    "",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0640))

			src, err := readSourceLines(path)
			require.NoError(t, err)
			require.NoError(t, src.write(path, src.lines))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, content, string(data))
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, "Foo", ComponentName("foo"))
	assert.Equal(t, "HeroBanner", ComponentName("hero-banner"))
	assert.Equal(t, "hero-banner", TagName("HeroBanner"))
	assert.Equal(t, "my-app", NewProjectInfo("MyApp", "", "").ClassName)
	assert.Equal(t, DefaultProjectVersion, NewProjectInfo("MyApp", "", "").Version)
}
