package clean

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arcane-labs/arcane-cli/internal/pkgcache"
	"github.com/arcane-labs/arcane-cli/internal/runtime"
	"github.com/arcane-labs/arcane-cli/internal/ui"
)

type handler struct {
	log      *zerolog.Logger
	storeDir string
}

func New(runtimeContext *runtime.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [name]",
		Short: "Removes cached template packages",
		Long:  `Removes every cached version of the named package, or the whole cache when no name is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := &handler{log: runtimeContext.Logger, storeDir: runtimeContext.Config.StoreDir}
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return h.Execute(name)
		},
	}
}

func (h *handler) Execute(name string) error {
	removed, err := pkgcache.Remove(h.storeDir, name)
	if err != nil {
		return err
	}

	ui.Line()
	switch {
	case removed == 0 && name != "":
		ui.Warning(fmt.Sprintf("No cached versions of %s", name))
	case removed == 0:
		ui.Dim("Cache is already empty")
	default:
		ui.Success(fmt.Sprintf("Removed %d cached template %s", removed, plural(removed)))
	}
	ui.Line()
	return nil
}

func plural(n int) string {
	if n == 1 {
		return "version"
	}
	return "versions"
}
