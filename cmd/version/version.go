package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcane-labs/arcane-cli/internal/runtime"
)

// Default placeholder value
var Version = "development"

func New(runtimeContext *runtime.Context) *cobra.Command {
	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the arcane version",
		Long:  "This command prints the current version of the arcane CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "arcane", Version)
			runtimeContext.Logger.Debug().Msgf("CLI home: %s", home(runtimeContext))
			return nil
		},
	}

	return versionCmd
}

func home(ctx *runtime.Context) string {
	if ctx.Config == nil {
		return ""
	}
	return ctx.Config.Home
}
