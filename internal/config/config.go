// Package config builds the explicit configuration handed to the installation
// pipeline. Only this package and cmd read flags or the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/arcane-labs/arcane-cli/internal/pkgcache"
	"github.com/arcane-labs/arcane-cli/internal/registry"
	"github.com/arcane-labs/arcane-cli/internal/settings"
)

const (
	DefaultHomeDirName = ".arcane"
	DefaultCLIName     = "arcane-cli"
	DefaultNodeBinary  = "node"

	templateDirName = "template"
	storeDirName    = "node_modules"
)

// Config is resolved once per invocation.
type Config struct {
	Home         string
	StoreDir     string
	TargetRoot   string
	Registry     string
	TemplatePath string
	LockCache    bool
	LockTimeout  time.Duration
	CLIName      string
	CLIVersion   string
	NodeBinary   string
	WorkDir      string
	NoUpdate     bool

	// ForceUpdateCheck bypasses the update cache and the development build skip.
	ForceUpdateCheck bool
}

// New reads v with the following priority for every key:
//  1. CLI flag
//  2. ARCANE_* environment variable
//  3. built-in default
func New(v *viper.Viper, cliVersion string) (*Config, error) {
	home := v.GetString(settings.Flags.Home.Name)
	if home == "" {
		userHome, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user home: %w", err)
		}
		home = filepath.Join(userHome, DefaultHomeDirName)
	}
	home, err := expandAbs(home)
	if err != nil {
		return nil, fmt.Errorf("invalid home directory: %w", err)
	}

	templatePath := v.GetString(settings.Flags.TemplatePath.Name)
	if templatePath != "" {
		if templatePath, err = expandAbs(templatePath); err != nil {
			return nil, fmt.Errorf("invalid template path: %w", err)
		}
	}

	registryURL := v.GetString(settings.Flags.Registry.Name)
	if registryURL == "" {
		registryURL = registry.DefaultRegistry
	}

	lockTimeout := v.GetDuration(settings.Flags.LockTimeout.Name)
	if lockTimeout <= 0 {
		lockTimeout = pkgcache.DefaultLockTimeout
	}

	node := v.GetString(settings.Flags.Node.Name)
	if node == "" {
		node = DefaultNodeBinary
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("error getting working directory: %w", err)
	}

	targetRoot := filepath.Join(home, templateDirName)
	return &Config{
		Home:         home,
		TargetRoot:   targetRoot,
		StoreDir:     filepath.Join(targetRoot, storeDirName),
		Registry:     registryURL,
		TemplatePath: templatePath,
		LockCache:    v.GetBool(settings.Flags.LockCache.Name),
		LockTimeout:  lockTimeout,
		CLIName:      DefaultCLIName,
		CLIVersion:   cliVersion,
		NodeBinary:   node,
		WorkDir:      wd,
		NoUpdate:     v.GetBool(settings.Flags.NoUpdate.Name),

		ForceUpdateCheck: v.GetBool(settings.ForceUpdateCheckKey),
	}, nil
}

// LocalMode reports whether templates come from TemplatePath instead of the
// registry cache.
func (c *Config) LocalMode() bool {
	return c.TemplatePath != ""
}

func expandAbs(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}
