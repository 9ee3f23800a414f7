package cache

import (
	"github.com/spf13/cobra"

	"github.com/arcane-labs/arcane-cli/cmd/cache/clean"
	"github.com/arcane-labs/arcane-cli/cmd/cache/list"
	"github.com/arcane-labs/arcane-cli/internal/runtime"
)

func New(runtimeContext *runtime.Context) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspects and cleans the template cache",
		Long: `Template packages are downloaded once per version into the arcane home
directory and reused by later installs. These commands list and remove them.`,
	}

	cacheCmd.AddCommand(list.New(runtimeContext))
	cacheCmd.AddCommand(clean.New(runtimeContext))

	return cacheCmd
}
