package add

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arcane-labs/arcane-cli/internal/catalog"
	"github.com/arcane-labs/arcane-cli/internal/runtime"
	"github.com/arcane-labs/arcane-cli/internal/settings"
	"github.com/arcane-labs/arcane-cli/internal/ui"
	"github.com/arcane-labs/arcane-cli/internal/validation"
)

type Inputs struct {
	NpmName     string   `validate:"required,npm_name" cli:"<name>"`
	Version     string   `validate:"required,npm_version" cli:"<version>"`
	Tag         string   `validate:"required,oneof=page section project" cli:"--tag"`
	Type        string   `validate:"omitempty,oneof=normal custom" cli:"--type"`
	TargetPath  string   `validate:"required" cli:"--target-path"`
	DisplayName string   `cli:"--display-name"`
	Ignore      []string `validate:"dive,required" cli:"--ignore"`
	Description string   `validate:"max=512" cli:"--description"`
}

type handler struct {
	log       *zerolog.Logger
	home      string
	validated bool
}

func New(runtimeContext *runtime.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name[@version]>",
		Short: "Adds a template package to the catalog",
		Long: `Adds a template package to templates.yaml in the arcane home directory.
An entry with the same package name and kind replaces the existing one,
built-in entries included.`,
		Args: cobra.ExactArgs(1),
		Example: `  arcane templates add @acme/page-dashboard@2.1.0 --tag page --target-path src/views/Dashboard
  arcane templates add acme-installer --tag project --target-path . --type custom`,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := &handler{log: runtimeContext.Logger, home: runtimeContext.Config.Home}

			inputs, err := h.ResolveInputs(runtimeContext.Viper, args[0])
			if err != nil {
				return err
			}
			if err := h.ValidateInputs(inputs); err != nil {
				return err
			}
			return h.Execute(inputs)
		},
	}

	cmd.Flags().String(settings.Flags.Tag.Name, "", "Kind of template: page, section or project")
	cmd.Flags().String(settings.Flags.TargetPath.Name, "", "Directory under the package's template/ folder to install from")
	cmd.Flags().String(settings.Flags.Type.Name, string(catalog.TypeNormal), "Install type: normal or custom")
	cmd.Flags().String(settings.Flags.DisplayName.Name, "", "Name shown when choosing a template (default: the package name)")
	cmd.Flags().StringSlice(settings.Flags.Ignore.Name, nil, "Glob of files copied without rendering, repeatable")
	cmd.Flags().String(settings.Flags.Description.Name, "", "Short description shown in arcane templates list")

	return cmd
}

func (h *handler) ResolveInputs(v *viper.Viper, spec string) (Inputs, error) {
	name, version, err := catalog.ParseSpec(spec)
	if err != nil {
		return Inputs{}, validation.NewValidationError("<name>", err.Error())
	}
	return Inputs{
		NpmName:     name,
		Version:     version,
		Tag:         v.GetString(settings.Flags.Tag.Name),
		Type:        v.GetString(settings.Flags.Type.Name),
		TargetPath:  v.GetString(settings.Flags.TargetPath.Name),
		DisplayName: v.GetString(settings.Flags.DisplayName.Name),
		Ignore:      v.GetStringSlice(settings.Flags.Ignore.Name),
		Description: v.GetString(settings.Flags.Description.Name),
	}, nil
}

func (h *handler) ValidateInputs(inputs Inputs) error {
	validator, err := validation.NewValidator()
	if err != nil {
		return fmt.Errorf("failed to create validator: %w", err)
	}

	if err := validator.Struct(inputs); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	h.validated = true
	return nil
}

func (h *handler) Execute(inputs Inputs) error {
	if !h.validated {
		return fmt.Errorf("handler inputs not validated")
	}

	tag, _ := catalog.ParseTag(inputs.Tag)
	entry := catalog.Template{
		Name:        inputs.DisplayName,
		NpmName:     inputs.NpmName,
		Version:     inputs.Version,
		Type:        catalog.Type(inputs.Type),
		Tag:         tag,
		TargetPath:  inputs.TargetPath,
		Ignore:      inputs.Ignore,
		Description: inputs.Description,
	}
	if entry.Name == "" {
		entry.Name = entry.NpmName
	}
	if entry.Type == catalog.TypeNormal {
		entry.Type = ""
	}

	existing, _, err := catalog.LoadUser(h.home)
	if err != nil {
		return err
	}

	updated := make([]catalog.Template, 0, len(existing)+1)
	replaced := false
	for _, t := range existing {
		if t.Key() == entry.Key() {
			updated = append(updated, entry)
			replaced = true
			continue
		}
		updated = append(updated, t)
	}
	if !replaced {
		updated = append(updated, entry)
	}

	if err := catalog.SaveUser(h.home, updated); err != nil {
		return fmt.Errorf("failed to save template catalog: %w", err)
	}
	h.log.Debug().Msgf("Saved %d user templates", len(updated))

	ui.Line()
	if replaced {
		ui.Success(fmt.Sprintf("Updated %s template %s@%s", entry.Tag, entry.NpmName, entry.Version))
	} else {
		ui.Success(fmt.Sprintf("Added %s template %s@%s", entry.Tag, entry.NpmName, entry.Version))
	}
	ui.Line()

	return nil
}
