package templates

import (
	"github.com/spf13/cobra"

	"github.com/arcane-labs/arcane-cli/cmd/templates/add"
	"github.com/arcane-labs/arcane-cli/cmd/templates/list"
	"github.com/arcane-labs/arcane-cli/cmd/templates/remove"
	"github.com/arcane-labs/arcane-cli/internal/runtime"
)

func New(runtimeContext *runtime.Context) *cobra.Command {
	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "Manages the template catalog",
		Long: `Manages the catalog that arcane add and arcane init pick templates from.

arcane ships with a built-in set of templates ready to use.
Use these commands only if you want to add your own template packages.
They are kept in templates.yaml in the arcane home directory.`,
	}

	templatesCmd.AddCommand(list.New(runtimeContext))
	templatesCmd.AddCommand(add.New(runtimeContext))
	templatesCmd.AddCommand(remove.New(runtimeContext))

	return templatesCmd
}
