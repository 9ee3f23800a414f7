package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addInputs struct {
	Name       string `validate:"required,template_name" cli:"--name"`
	Version    string `validate:"required,npm_version" cli:"--template"`
	SourceFile string `validate:"omitempty,source_file" cli:"--file"`
	Line       int    `validate:"gte=0" cli:"--line"`
}

func TestNewValidator_Success(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)
	assert.NoError(t, v.Struct(&addInputs{Name: "home", Version: "latest"}))
}

func TestValidator(t *testing.T) {
	vueFile := filepath.Join(t.TempDir(), "index.vue")
	require.NoError(t, os.WriteFile(vueFile, []byte("<template></template>\n"), 0600))

	tests := []struct {
		name             string
		setup            func(*Validator) error
		input            interface{}
		wantErrorKeys    []string
		wantErrorDetails []string
	}{
		{
			name:  "valid inputs",
			input: &addInputs{Name: "hero-banner", Version: "1.2.3", SourceFile: vueFile, Line: 2},
		},
		{
			name:  "latest is a valid version",
			input: &addInputs{Name: "Home", Version: "latest"},
		},
		{
			name:             "template name starting with a digit",
			input:            &addInputs{Name: "1home", Version: "latest"},
			wantErrorKeys:    []string{"--name"},
			wantErrorDetails: []string{"--name must start with a letter and contain only letters, numbers, dashes and underscores: 1home"},
		},
		{
			name:             "version range is rejected",
			input:            &addInputs{Name: "home", Version: "^1.0.0"},
			wantErrorKeys:    []string{"--template"},
			wantErrorDetails: []string{"--template must be \"latest\" or a semantic version: ^1.0.0"},
		},
		{
			name:             "missing source file and negative line",
			input:            &addInputs{Name: "home", Version: "latest", SourceFile: "missing.vue", Line: -1},
			wantErrorKeys:    []string{"--file", "--line"},
			wantErrorDetails: []string{"--file must be an existing readable file: missing.vue", "--line must be 0 or greater"},
		},
		{
			name: "custom translation override",
			setup: func(v *Validator) error {
				return v.RegisterCustomTranslation("required", "{0} is mandatory!")
			},
			input:            &addInputs{Version: "latest"},
			wantErrorKeys:    []string{"--name"},
			wantErrorDetails: []string{"--name is mandatory!"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewValidator()
			require.NoError(t, err)

			if tt.setup != nil {
				require.NoError(t, tt.setup(v))
			}

			err = v.Struct(tt.input)
			if len(tt.wantErrorKeys) == 0 {
				assert.NoError(t, err)
				return
			}

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
			assert.Len(t, verrs, len(tt.wantErrorKeys))
			for i, key := range tt.wantErrorKeys {
				detail, ok := verrs.Detail(key)
				assert.True(t, ok, "no error for %s", key)
				assert.Equal(t, tt.wantErrorDetails[i], detail)
			}
		})
	}

	t.Run("formats multiple validation errors", func(t *testing.T) {
		v, err := NewValidator()
		require.NoError(t, err)

		err = v.Struct(&addInputs{Name: "bad name", Version: "one"})
		require.Error(t, err)

		got := fmt.Sprintf("%v", err)
		assert.Equal(t, "validation error\n"+
			"--name must start with a letter and contain only letters, numbers, dashes and underscores: bad name\n"+
			"--template must be \"latest\" or a semantic version: one\n", got)
	})
}

func TestValidationErrorType(t *testing.T) {
	err := NewValidationError("--line", "line 9 is out of range")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "--line", verr.Field)
	assert.Equal(t, "line 9 is out of range", err.Error())
}

func TestIsValidNpmName(t *testing.T) {
	valid := []string{"arcane-cli-template-page-vue2", "@acme/hero", "a.b_c~d", "x"}
	for _, name := range valid {
		assert.NoError(t, IsValidNpmName(name), name)
	}

	invalid := []string{"", "Upper", "has space", "@acme", "@acme/", ".hidden", "_private"}
	for _, name := range invalid {
		assert.Error(t, IsValidNpmName(name), name)
	}
}

func TestIsValidProjectName(t *testing.T) {
	assert.NoError(t, IsValidProjectName("my-app"))
	assert.Error(t, IsValidProjectName(""))
	assert.Error(t, IsValidProjectName("@acme/app"))
	assert.Error(t, IsValidProjectName("My App"))
}

func TestIsValidNpmVersion(t *testing.T) {
	assert.NoError(t, IsValidNpmVersion("latest"))
	assert.NoError(t, IsValidNpmVersion("1.0.1"))
	assert.NoError(t, IsValidNpmVersion("2.0.0-beta.1"))
	assert.Error(t, IsValidNpmVersion("v1.0.0"))
	assert.Error(t, IsValidNpmVersion("1.0"))
	assert.Error(t, IsValidNpmVersion(""))
}
