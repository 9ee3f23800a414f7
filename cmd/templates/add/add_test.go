package add

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcane-labs/arcane-cli/internal/catalog"
	"github.com/arcane-labs/arcane-cli/internal/settings"
	"github.com/arcane-labs/arcane-cli/internal/testutil"
)

func addTemplate(t *testing.T, h *handler, spec string, flags map[string]any) error {
	t.Helper()
	v := viper.New()
	for k, val := range flags {
		v.Set(k, val)
	}
	inputs, err := h.ResolveInputs(v, spec)
	if err != nil {
		return err
	}
	if err := h.ValidateInputs(inputs); err != nil {
		return err
	}
	return h.Execute(inputs)
}

func TestAddTemplate(t *testing.T) {
	home := t.TempDir()
	h := &handler{log: testutil.NewTestLogger(), home: home}

	require.NoError(t, addTemplate(t, h, "@acme/page-dashboard@2.1.0", map[string]any{
		settings.Flags.Tag.Name:        "page",
		settings.Flags.TargetPath.Name: "src/views/Dashboard",
		settings.Flags.Ignore.Name:     []string{"**/*.png"},
	}))
	require.NoError(t, addTemplate(t, h, "acme-installer", map[string]any{
		settings.Flags.Tag.Name:         "project",
		settings.Flags.TargetPath.Name:  ".",
		settings.Flags.Type.Name:        "custom",
		settings.Flags.DisplayName.Name: "Acme installer",
	}))

	templates, path, err := catalog.LoadUser(home)
	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.Equal(t, []catalog.Template{
		{Name: "@acme/page-dashboard", NpmName: "@acme/page-dashboard", Version: "2.1.0", Tag: catalog.TagPage, TargetPath: "src/views/Dashboard", Ignore: []string{"**/*.png"}},
		{Name: "Acme installer", NpmName: "acme-installer", Version: "latest", Type: catalog.TypeCustom, Tag: catalog.TagProject, TargetPath: "."},
	}, templates)
}

func TestAddTemplateReplacesSameKey(t *testing.T) {
	home := t.TempDir()
	h := &handler{log: testutil.NewTestLogger(), home: home}
	flags := map[string]any{
		settings.Flags.Tag.Name:        "section",
		settings.Flags.TargetPath.Name: "src/components/Card",
	}

	require.NoError(t, addTemplate(t, h, "acme-card@1.0.0", flags))
	require.NoError(t, addTemplate(t, h, "acme-card@1.1.0", flags))

	templates, _, err := catalog.LoadUser(home)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "1.1.0", templates[0].Version)
}

func TestAddTemplateValidation(t *testing.T) {
	h := &handler{log: testutil.NewTestLogger(), home: t.TempDir()}

	err := addTemplate(t, h, "Bad Name", map[string]any{
		settings.Flags.Tag.Name:        "page",
		settings.Flags.TargetPath.Name: ".",
	})
	assert.Error(t, err)

	err = addTemplate(t, h, "good-name", map[string]any{
		settings.Flags.Tag.Name:        "widget",
		settings.Flags.TargetPath.Name: ".",
	})
	assert.ErrorContains(t, err, "--tag")

	err = addTemplate(t, h, "good-name@^1.0.0", map[string]any{
		settings.Flags.Tag.Name:        "page",
		settings.Flags.TargetPath.Name: ".",
	})
	assert.Error(t, err)

	err = addTemplate(t, h, "good-name", map[string]any{settings.Flags.Tag.Name: "page"})
	assert.ErrorContains(t, err, "--target-path")
}
