// Package cmdtest builds runtime contexts for command tests: an isolated CLI
// home, a project directory with a package.json and an in-memory registry.
package cmdtest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/arcane-labs/arcane-cli/internal/catalog"
	"github.com/arcane-labs/arcane-cli/internal/config"
	"github.com/arcane-labs/arcane-cli/internal/runtime"
	"github.com/arcane-labs/arcane-cli/internal/testutil"
)

// ProjectManifest is the package.json written into every WorkDir.
const ProjectManifest = `{"name":"app","private":true,"dependencies":{"vue":"^2.6.14"}}`

type Environment struct {
	Home     string
	WorkDir  string
	Registry *testutil.RegistryServer
}

func NewEnvironment(t *testing.T) *Environment {
	t.Helper()
	env := &Environment{
		Home:     t.TempDir(),
		WorkDir:  t.TempDir(),
		Registry: testutil.NewRegistryServer(t),
	}
	if err := os.WriteFile(filepath.Join(env.WorkDir, "package.json"), []byte(ProjectManifest), 0600); err != nil {
		t.Fatalf("failed to write project manifest: %v", err)
	}
	return env
}

// Config points the pipeline at the environment.
func (e *Environment) Config() *config.Config {
	targetRoot := filepath.Join(e.Home, "template")
	return &config.Config{
		Home:        e.Home,
		TargetRoot:  targetRoot,
		StoreDir:    filepath.Join(targetRoot, "node_modules"),
		Registry:    e.Registry.URL,
		LockTimeout: time.Second,
		CLIName:     config.DefaultCLIName,
		CLIVersion:  "development",
		NodeBinary:  config.DefaultNodeBinary,
		WorkDir:     e.WorkDir,
		NoUpdate:    true,
	}
}

// WriteCatalog replaces the user catalog in Home.
func (e *Environment) WriteCatalog(t *testing.T, templates ...catalog.Template) {
	t.Helper()
	if err := catalog.SaveUser(e.Home, templates); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
}

func (e *Environment) NewRuntimeContext(t *testing.T) *runtime.Context {
	t.Helper()
	return e.createContextWithLogger(t, testutil.NewTestLogger())
}

func (e *Environment) NewRuntimeContextWithBufferedOutput(t *testing.T) (*runtime.Context, *bytes.Buffer) {
	t.Helper()
	logger, buf := testutil.NewBufferedLogger()
	return e.createContextWithLogger(t, logger), buf
}

func (e *Environment) createContextWithLogger(t *testing.T, logger *zerolog.Logger) *runtime.Context {
	t.Helper()
	ctx := runtime.NewContext(logger, viper.New())
	ctx.Config = e.Config()
	if err := ctx.AttachCatalog(); err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return ctx
}
