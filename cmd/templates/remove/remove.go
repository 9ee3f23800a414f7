package remove

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arcane-labs/arcane-cli/internal/catalog"
	"github.com/arcane-labs/arcane-cli/internal/runtime"
	"github.com/arcane-labs/arcane-cli/internal/settings"
	"github.com/arcane-labs/arcane-cli/internal/ui"
)

type handler struct {
	log  *zerolog.Logger
	home string
}

func New(runtimeContext *runtime.Context) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "remove <name>...",
		Short: "Removes template packages from the catalog",
		Long: `Removes one or more template packages from templates.yaml in the arcane home
directory. Built-in templates cannot be removed. A version suffix is ignored
during matching.`,
		Args:    cobra.MinimumNArgs(1),
		Example: "  arcane templates remove @acme/page-dashboard acme-installer",
		RunE: func(cmd *cobra.Command, args []string) error {
			h := &handler{log: runtimeContext.Logger, home: runtimeContext.Config.Home}
			return h.Execute(args, tag)
		},
	}

	cmd.Flags().StringVar(&tag, settings.Flags.Tag.Name, "", "Only remove entries of this kind: page, section or project")

	return cmd
}

func (h *handler) Execute(names []string, tagFilter string) error {
	var tag catalog.Tag
	if tagFilter != "" {
		var ok bool
		if tag, ok = catalog.ParseTag(tagFilter); !ok {
			return fmt.Errorf("unknown template kind %q, expected page, section or project", tagFilter)
		}
	}

	toRemove := make(map[string]bool, len(names))
	for _, spec := range names {
		name, _, err := catalog.ParseSpec(spec)
		if err != nil {
			return fmt.Errorf("invalid template %q: %w", spec, err)
		}
		toRemove[name] = true
	}

	existing, _, err := catalog.LoadUser(h.home)
	if err != nil {
		return err
	}

	var remaining, removed []catalog.Template
	found := map[string]bool{}
	for _, t := range existing {
		if toRemove[t.NpmName] && (tag == "" || t.Tag == tag) {
			removed = append(removed, t)
			found[t.NpmName] = true
			continue
		}
		remaining = append(remaining, t)
	}

	for name := range toRemove {
		if !found[name] {
			ui.Warning(fmt.Sprintf("Template %s is not in your catalog, skipping", name))
		}
	}

	if len(removed) == 0 {
		return nil
	}

	if err := catalog.SaveUser(h.home, remaining); err != nil {
		return fmt.Errorf("failed to save template catalog: %w", err)
	}

	ui.Line()
	for _, t := range removed {
		ui.Success(fmt.Sprintf("Removed %s template %s", t.Tag, t.NpmName))
	}
	ui.Line()

	return nil
}
