package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/arcane-labs/arcane-cli/cmd/add"
	"github.com/arcane-labs/arcane-cli/cmd/arcaneinit"
	"github.com/arcane-labs/arcane-cli/cmd/cache"
	"github.com/arcane-labs/arcane-cli/cmd/templates"
	"github.com/arcane-labs/arcane-cli/cmd/version"
	"github.com/arcane-labs/arcane-cli/internal/logger"
	"github.com/arcane-labs/arcane-cli/internal/pkgcache"
	"github.com/arcane-labs/arcane-cli/internal/registry"
	arcaneruntime "github.com/arcane-labs/arcane-cli/internal/runtime"
	"github.com/arcane-labs/arcane-cli/internal/settings"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = newRootCommand()

const updateCheckTimeout = 3 * time.Second

func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootLogger := createLogger()
	rootViper := createViper()
	runtimeContext := arcaneruntime.NewContext(rootLogger, rootViper)

	// By defining a Run func, we force PersistentPreRunE to execute
	// even when 'arcane', 'templates', etc is called with no subcommand
	// this enables to check for update and display if needed
	helpRunE := func(cmd *cobra.Command, args []string) error {
		err := cmd.Help()
		if err != nil {
			return fmt.Errorf("fail to show help: %w", err)
		}
		return nil
	}

	rootCmd := &cobra.Command{
		Use:               "arcane",
		Short:             "Arcane template CLI",
		Long:              `A command line tool for scaffolding projects, pages and sections from template packages published to an npm registry.`,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		RunE:              helpRunE,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := runtimeContext.Viper

			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}

			if err := settings.LoadEnv(runtimeContext.Logger, v.GetString(settings.Flags.CliEnvFile.Name)); err != nil {
				return fmt.Errorf("failed to load environment: %w", err)
			}
			settings.BindEnv(v)

			if level := v.GetString(settings.LogLevelKey); level != "" {
				newLogger := runtimeContext.Logger.Level(logger.ParseLevel(level))
				runtimeContext.Logger = &newLogger
			}
			if verbose := v.GetBool(settings.Flags.Verbose.Name); verbose {
				newLogger := runtimeContext.Logger.Level(zerolog.DebugLevel)
				runtimeContext.Logger = &newLogger
			}

			if err := runtimeContext.AttachConfig(version.Version); err != nil {
				return err
			}
			runtimeContext.Logger.Debug().
				Str("home", runtimeContext.Config.Home).
				Str("registry", runtimeContext.Config.Registry).
				Bool("localTemplates", runtimeContext.Config.LocalMode()).
				Msg("Configuration loaded")

			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if !isCheckForUpdates(cmd) || runtimeContext.Config == nil || runtimeContext.Config.NoUpdate {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), updateCheckTimeout)
			defer cancel()
			runtimeContext.UpdateChecker().Check(ctx, runtimeContext.Config.CLIName, version.Version)
		},
	}

	cobra.AddTemplateFunc("wrappedFlagUsages", func(fs *pflag.FlagSet) string {
		// 100 = wrap width
		return strings.TrimRight(fs.FlagUsagesWrapped(100), "\n")
	})

	cobra.AddTemplateFunc("hasUngrouped", func(c *cobra.Command) bool {
		for _, cmd := range c.Commands() {
			if cmd.IsAvailableCommand() && !cmd.Hidden && cmd.GroupID == "" {
				return true
			}
		}
		return false
	})

	rootCmd.SetHelpTemplate(`
{{- with (or .Long .Short)}}{{.}}{{end}}

Usage:
{{- if .Runnable}}
  {{.UseLine}}
{{- else if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]
{{- end}}

{{- if .HasAvailableSubCommands}}

Available Commands:
  {{- $groupsUsed := false -}}
  {{- $firstGroup := true -}}

  {{- range $grp := .Groups}}
    {{- $has := false -}}
    {{- range $.Commands}}
      {{- if (and (not .Hidden) (.IsAvailableCommand) (eq .GroupID $grp.ID))}}
        {{- $has = true}}
      {{- end}}
    {{- end}}

    {{- if $has}}
      {{- $groupsUsed = true -}}
      {{- if $firstGroup}}{{- $firstGroup = false -}}{{else}}

{{- end}}

  {{printf "%s:" $grp.Title}}
      {{- range $.Commands}}
        {{- if (and (not .Hidden) (.IsAvailableCommand) (eq .GroupID $grp.ID))}}
    {{rpad .Name .NamePadding}}  {{.Short}}
        {{- end}}
      {{- end}}
    {{- end}}
  {{- end}}

  {{- if $groupsUsed }}
    {{- if hasUngrouped .}}

  Other:
      {{- range .Commands}}
        {{- if (and (not .Hidden) (.IsAvailableCommand) (eq .GroupID ""))}}
    {{rpad .Name .NamePadding}}  {{.Short}}
        {{- end}}
      {{- end}}
    {{- end}}
  {{- else }}
    {{- range .Commands}}
      {{- if (and (not .Hidden) (.IsAvailableCommand))}}
    {{rpad .Name .NamePadding}}  {{.Short}}
      {{- end}}
    {{- end}}
  {{- end }}
{{- end }}

{{- if .HasExample}}

Examples:
{{.Example}}
{{- end }}

{{- $local := (.LocalFlags.FlagUsagesWrapped 100 | trimTrailingWhitespaces) -}}
{{- if $local }}

Flags:
{{$local}}
{{- end }}

{{- $inherited := (.InheritedFlags.FlagUsagesWrapped 100 | trimTrailingWhitespaces) -}}
{{- if $inherited }}

Global Flags:
{{$inherited}}
{{- end }}

{{- if .HasAvailableSubCommands }}

Use "{{.CommandPath}} [command] --help" for more information about a command.
{{- end }}

Tip: New here? Run:
  $ arcane init my-app
    to create a project, then inside it:
  $ arcane add --name dashboard
    to add your first page.
`)

	// Definition of global flags:
	// env file flag is present for every subcommand
	rootCmd.PersistentFlags().StringP(
		settings.Flags.CliEnvFile.Name,
		settings.Flags.CliEnvFile.Short,
		"",
		fmt.Sprintf("Path to a %s file loaded before configuration is read", settings.DefaultEnvFileName),
	)

	// verbose flag is present in every subcommand
	rootCmd.PersistentFlags().BoolP(
		settings.Flags.Verbose.Name,
		settings.Flags.Verbose.Short,
		false,
		"Run command in VERBOSE mode",
	)

	rootCmd.PersistentFlags().String(settings.Flags.Home.Name, "", "CLI home holding the template cache and catalog (default ~/.arcane)")
	rootCmd.PersistentFlags().StringP(settings.Flags.Registry.Name, settings.Flags.Registry.Short, "", fmt.Sprintf("Package registry (default %s)", registry.DefaultRegistry))
	rootCmd.PersistentFlags().StringP(settings.Flags.TemplatePath.Name, settings.Flags.TemplatePath.Short, "", "Use a local template package directory instead of the registry")
	rootCmd.PersistentFlags().Bool(settings.Flags.LockCache.Name, false, "Lock cache entries while installing, for concurrent invocations")
	rootCmd.PersistentFlags().Duration(settings.Flags.LockTimeout.Name, pkgcache.DefaultLockTimeout, "How long to wait for a locked cache entry")
	rootCmd.PersistentFlags().String(settings.Flags.Node.Name, "", "Node.js binary used to run custom template installers (default node)")
	rootCmd.PersistentFlags().Bool(settings.Flags.NoUpdate.Name, false, "Skip the check for a newer CLI version")

	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	addCmd := add.New(runtimeContext)
	initCmd := arcaneinit.New(runtimeContext)
	templatesCmd := templates.New(runtimeContext)
	cacheCmd := cache.New(runtimeContext)
	versionCmd := version.New(runtimeContext)

	templatesCmd.RunE = helpRunE
	cacheCmd.RunE = helpRunE

	// Define groups (order controls display order)
	rootCmd.AddGroup(&cobra.Group{ID: "scaffold", Title: "Scaffolding"})
	rootCmd.AddGroup(&cobra.Group{ID: "manage", Title: "Templates"})

	initCmd.GroupID = "scaffold"
	addCmd.GroupID = "scaffold"

	templatesCmd.GroupID = "manage"
	cacheCmd.GroupID = "manage"

	rootCmd.AddCommand(
		initCmd,
		addCmd,
		templatesCmd,
		cacheCmd,
		versionCmd,
	)

	return rootCmd
}

func isCheckForUpdates(cmd *cobra.Command) bool {
	// Shell completion and help output must stay clean
	var excludedCommands = map[string]struct{}{
		"bash":       {},
		"fish":       {},
		"powershell": {},
		"zsh":        {},
		"help":       {},
		"__complete": {},
	}

	_, exists := excludedCommands[cmd.Name()]
	return !exists
}

func createLogger() *zerolog.Logger {
	return logger.NewConsoleLogger(false)
}

func createViper() *viper.Viper {
	return viper.New() //nolint:forbidigo
}
