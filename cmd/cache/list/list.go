package list

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arcane-labs/arcane-cli/internal/pkgcache"
	"github.com/arcane-labs/arcane-cli/internal/runtime"
	"github.com/arcane-labs/arcane-cli/internal/ui"
)

type handler struct {
	log      *zerolog.Logger
	storeDir string
	out      io.Writer
}

func New(runtimeContext *runtime.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lists cached template packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := &handler{log: runtimeContext.Logger, storeDir: runtimeContext.Config.StoreDir, out: cmd.OutOrStdout()}
			return h.Execute()
		},
	}
}

func (h *handler) Execute() error {
	entries, err := pkgcache.List(h.storeDir)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		ui.Line()
		ui.Dim(fmt.Sprintf("No cached templates in %s", h.storeDir))
		ui.Line()
		return nil
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Package", "Version", "Size"})

	var total int64
	for _, e := range entries {
		size, err := pkgcache.DiskUsage(e.Path)
		if err != nil {
			h.log.Debug().Err(err).Msgf("Could not measure %s", e.Path)
		}
		total += size
		t.AppendRow(table.Row{e.Name, e.Version, ui.FormatBytes(size)})
	}
	t.AppendFooter(table.Row{"", "Total", ui.FormatBytes(total)})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignCenter},
		{Number: 3, Align: text.AlignRight},
	})

	fmt.Fprintln(h.out, t.Render())
	ui.Dim(fmt.Sprintf("Cache directory: %s", h.storeDir))
	return nil
}
