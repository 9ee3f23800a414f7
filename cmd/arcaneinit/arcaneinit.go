package arcaneinit

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arcane-labs/arcane-cli/internal/catalog"
	"github.com/arcane-labs/arcane-cli/internal/config"
	"github.com/arcane-labs/arcane-cli/internal/pkgcache"
	"github.com/arcane-labs/arcane-cli/internal/runtime"
	"github.com/arcane-labs/arcane-cli/internal/scaffold"
	"github.com/arcane-labs/arcane-cli/internal/settings"
	"github.com/arcane-labs/arcane-cli/internal/ui"
	"github.com/arcane-labs/arcane-cli/internal/validation"
)

type Inputs struct {
	ProjectName string `validate:"omitempty,project_name" cli:"project-name"`
	Version     string `validate:"omitempty,semver" cli:"--project-version"`
	Description string `validate:"max=512" cli:"--description"`
	Template    string `validate:"omitempty,npm_name" cli:"--template"`
	TemplateVer string `validate:"omitempty,npm_version" cli:"--template"`
	Force       bool
}

func New(runtimeContext *runtime.Context) *cobra.Command {
	initCmd := &cobra.Command{
		Use:     "init [project-name]",
		Aliases: []string{"new"},
		Short:   "Creates a new project from a project template",
		Long: `Creates ./<project-name> from a project template. The template is rendered with
the project name, its kebab-case class name, version and description.`,
		Example: "  arcane init my-admin --description \"Back office\"",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runtimeContext.AttachCatalog(); err != nil {
				return err
			}
			handler := newHandler(runtimeContext, ui.NewPrompter())

			inputs, err := handler.ResolveInputs(runtimeContext.Viper, args)
			if err != nil {
				return err
			}
			if err := handler.ValidateInputs(inputs); err != nil {
				return err
			}
			return handler.Execute(cmd.Context(), inputs)
		},
	}

	initCmd.Flags().Bool(settings.Flags.Force.Name, false, "Install into an existing project directory")
	initCmd.Flags().String(settings.Flags.Template.Name, "", "Project template package to use, as name[@version]; the version only applies when the template is not cached yet")
	initCmd.Flags().String(settings.Flags.ProjectVersion.Name, scaffold.DefaultProjectVersion, "Version written to the new package.json")
	initCmd.Flags().String(settings.Flags.Description.Name, "", "Description written to the new package.json")

	return initCmd
}

type handler struct {
	log          *zerolog.Logger
	cfg          *config.Config
	catalog      *catalog.Catalog
	prompter     scaffold.Prompter
	orchestrator *scaffold.Orchestrator
	validated    bool
}

func newHandler(ctx *runtime.Context, prompter scaffold.Prompter) *handler {
	return &handler{
		log:          ctx.Logger,
		cfg:          ctx.Config,
		catalog:      ctx.Catalog,
		prompter:     prompter,
		orchestrator: ctx.Orchestrator(),
	}
}

func (h *handler) ResolveInputs(v *viper.Viper, args []string) (Inputs, error) {
	inputs := Inputs{
		Version:     v.GetString(settings.Flags.ProjectVersion.Name),
		Description: v.GetString(settings.Flags.Description.Name),
		Force:       v.GetBool(settings.Flags.Force.Name),
	}
	if len(args) > 0 {
		inputs.ProjectName = args[0]
	}

	if spec := v.GetString(settings.Flags.Template.Name); spec != "" {
		name, version, err := catalog.ParseSpec(spec)
		if err != nil {
			return Inputs{}, validation.NewValidationError("--"+settings.Flags.Template.Name, err.Error())
		}
		inputs.Template = name
		if version != pkgcache.LatestTag {
			inputs.TemplateVer = version
		}
	}
	return inputs, nil
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

func (h *handler) Execute(ctx context.Context, inputs Inputs) error {
	if !h.validated {
		return fmt.Errorf("handler inputs not validated")
	}

	tmpl, err := scaffold.ChooseTemplate(h.prompter, h.catalog, catalog.TagProject, inputs.Template)
	if err != nil {
		return err
	}
	if inputs.TemplateVer != "" {
		tmpl.Version = inputs.TemplateVer
	}

	name, err := scaffold.AskValue(h.prompter, "Project name", inputs.ProjectName, validation.IsValidProjectName)
	if err != nil {
		return err
	}

	info := scaffold.NewProjectInfo(name, inputs.Version, inputs.Description)
	target, err := h.orchestrator.InitProject(ctx, tmpl, info, inputs.Force)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(h.cfg.WorkDir, target)
	if err != nil {
		rel = target
	}

	ui.Line()
	ui.Success(fmt.Sprintf("Project %s created", name))
	ui.Line()
	ui.Title("Next steps")
	ui.Box(fmt.Sprintf("cd %s\nnpm install", rel))
	ui.Line()
	return nil
}
