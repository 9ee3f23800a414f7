package runtime

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/arcane-labs/arcane-cli/internal/catalog"
	"github.com/arcane-labs/arcane-cli/internal/config"
	"github.com/arcane-labs/arcane-cli/internal/pkgcache"
	"github.com/arcane-labs/arcane-cli/internal/registry"
	"github.com/arcane-labs/arcane-cli/internal/scaffold"
	"github.com/arcane-labs/arcane-cli/internal/ui"
	"github.com/arcane-labs/arcane-cli/internal/update"
)

type Context struct {
	Logger  *zerolog.Logger
	Viper   *viper.Viper
	Config  *config.Config
	Catalog *catalog.Catalog
}

func NewContext(logger *zerolog.Logger, viper *viper.Viper) *Context {
	return &Context{
		Logger: logger,
		Viper:  viper,
	}
}

func (ctx *Context) AttachConfig(cliVersion string) error {
	var err error

	ctx.Config, err = config.New(ctx.Viper, cliVersion)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	return nil
}

func (ctx *Context) AttachCatalog() error {
	if ctx.Config == nil {
		return fmt.Errorf("configuration not loaded")
	}

	var err error
	ctx.Catalog, err = catalog.Load(ctx.Logger, ctx.Config.Home)
	if err != nil {
		return fmt.Errorf("failed to load template catalog: %w", err)
	}

	return nil
}

// RegistryClient talks to the configured registry.
func (ctx *Context) RegistryClient() *registry.Client {
	return registry.NewClient(ctx.Logger, ctx.Config.Registry)
}

// Resolver resolves package versions against the configured registry.
func (ctx *Context) Resolver() *registry.Resolver {
	return registry.NewResolver(ctx.Logger, ctx.RegistryClient())
}

// Orchestrator wires the installation pipeline to the registry, the tarball
// backend and a terminal spinner.
func (ctx *Context) Orchestrator(opts ...scaffold.Option) *scaffold.Orchestrator {
	client := ctx.RegistryClient()
	resolver := registry.NewResolver(ctx.Logger, client)
	backend := pkgcache.NewTarballBackend(ctx.Logger, client)

	opts = append([]scaffold.Option{scaffold.WithProgress(ui.NewSpinner())}, opts...)
	return scaffold.New(ctx.Logger, ctx.Config, resolver, backend, opts...)
}

// UpdateChecker compares the running CLI with the registry.
func (ctx *Context) UpdateChecker() *update.Checker {
	return update.NewChecker(ctx.Logger, ctx.Resolver(), ctx.Config.Home, os.Stderr, ctx.Config.ForceUpdateCheck)
}
