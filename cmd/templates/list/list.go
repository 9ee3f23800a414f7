package list

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arcane-labs/arcane-cli/internal/catalog"
	"github.com/arcane-labs/arcane-cli/internal/runtime"
	"github.com/arcane-labs/arcane-cli/internal/settings"
	"github.com/arcane-labs/arcane-cli/internal/ui"
)

type handler struct {
	log     *zerolog.Logger
	catalog *catalog.Catalog
	out     io.Writer
}

func New(runtimeContext *runtime.Context) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lists available templates",
		Long:  `Displays the built-in templates and the ones added with arcane templates add.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runtimeContext.AttachCatalog(); err != nil {
				return err
			}
			h := &handler{log: runtimeContext.Logger, catalog: runtimeContext.Catalog, out: cmd.OutOrStdout()}
			return h.Execute(tag)
		},
	}

	cmd.Flags().StringVar(&tag, settings.Flags.Tag.Name, "", "Only list templates of this kind: page, section or project")

	return cmd
}

func (h *handler) Execute(tagFilter string) error {
	templates := h.catalog.Sorted()
	if tagFilter != "" {
		tag, ok := catalog.ParseTag(tagFilter)
		if !ok {
			return fmt.Errorf("unknown template kind %q, expected page, section or project", tagFilter)
		}
		templates = (&catalog.Catalog{Templates: templates}).ByTag(tag)
	}

	if len(templates) == 0 {
		ui.Line()
		ui.Warning("No templates found")
		ui.Dim("Add one with: arcane templates add <name[@version]> --tag page --target-path src/views/Home")
		ui.Line()
		return nil
	}

	fmt.Fprintln(h.out, FormatTemplatesTable(templates))

	ui.Line()
	ui.Dim("Install a template with:")
	ui.Command("  arcane add --template=<package>")
	ui.Line()

	return nil
}

// FormatTemplatesTable renders templates in catalog order.
func FormatTemplatesTable(templates []catalog.Template) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Kind", "Name", "Package", "Version", "Type", "Target Path"})

	for _, tmpl := range templates {
		t.AppendRow(table.Row{
			tmpl.Tag,
			tmpl.Name,
			tmpl.NpmName,
			tmpl.Version,
			tmpl.InstallType(),
			tmpl.TargetPath,
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft},
		{Number: 4, Align: text.AlignCenter},
		{Number: 5, Align: text.AlignCenter},
		{Number: 6, Align: text.AlignLeft},
	})

	return t.Render()
}
