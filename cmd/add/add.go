package add

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

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
	Section    bool
	Name       string `validate:"omitempty,template_name" cli:"--name"`
	Template   string `validate:"omitempty,npm_name" cli:"--template"`
	Version    string `validate:"omitempty,npm_version" cli:"--template"`
	SourceFile string `validate:"omitempty,source_file" cli:"--file"`
	Line       int    `validate:"gte=0" cli:"--line"`
	LineSet    bool
}

func New(runtimeContext *runtime.Context) *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Adds a page or section template to the current project",
		Long: `Installs a page template into ./<name>, or with --section a section template
into components/<Name> next to a source file, then references the new component
from that file. Template dependencies are merged into the nearest package.json.`,
		Example: `  arcane add --name dashboard
  arcane add --section --name hero-banner --file src/views/Home/index.vue --line 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runtimeContext.AttachCatalog(); err != nil {
				return err
			}
			handler := newHandler(runtimeContext, ui.NewPrompter())

			inputs, err := handler.ResolveInputs(runtimeContext.Viper)
			if err != nil {
				return err
			}
			if err := handler.ValidateInputs(inputs); err != nil {
				return err
			}
			return handler.Execute(cmd.Context(), inputs)
		},
	}

	addCmd.Flags().BoolP(settings.Flags.Section.Name, settings.Flags.Section.Short, false, "Add a section to an existing page instead of a new page")
	addCmd.Flags().StringP(settings.Flags.Name.Name, settings.Flags.Name.Short, "", "Name of the page or section")
	addCmd.Flags().String(settings.Flags.Template.Name, "", "Template package to use, as name[@version]; the version only applies when the template is not cached yet")
	addCmd.Flags().StringP(settings.Flags.File.Name, settings.Flags.File.Short, "", "Source file the section is referenced from")
	addCmd.Flags().IntP(settings.Flags.Line.Name, settings.Flags.Line.Short, 0, "Line of the source file the section tag is inserted at")

	return addCmd
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

func (h *handler) ResolveInputs(v *viper.Viper) (Inputs, error) {
	inputs := Inputs{
		Section:    v.GetBool(settings.Flags.Section.Name),
		Name:       v.GetString(settings.Flags.Name.Name),
		SourceFile: v.GetString(settings.Flags.File.Name),
		Line:       v.GetInt(settings.Flags.Line.Name),
		LineSet:    v.IsSet(settings.Flags.Line.Name),
	}

	if spec := v.GetString(settings.Flags.Template.Name); spec != "" {
		name, version, err := catalog.ParseSpec(spec)
		if err != nil {
			return Inputs{}, validation.NewValidationError("--"+settings.Flags.Template.Name, err.Error())
		}
		inputs.Template = name
		if version != pkgcache.LatestTag {
			inputs.Version = version
		}
	}

	if inputs.SourceFile != "" && !filepath.IsAbs(inputs.SourceFile) {
		inputs.SourceFile = filepath.Join(h.cfg.WorkDir, inputs.SourceFile)
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
	if inputs.Section {
		return h.addSection(ctx, inputs)
	}
	return h.addPage(ctx, inputs)
}

func (h *handler) addPage(ctx context.Context, inputs Inputs) error {
	tmpl, err := h.chooseTemplate(catalog.TagPage, inputs)
	if err != nil {
		return err
	}

	name, err := scaffold.AskValue(h.prompter, "Page name", inputs.Name, validation.IsValidTemplateName)
	if err != nil {
		return err
	}

	target, err := h.orchestrator.AddPage(ctx, tmpl, name)
	if err != nil {
		return err
	}

	ui.Line()
	ui.Success(fmt.Sprintf("Page %s created in %s", name, h.relative(target)))
	ui.Line()
	return nil
}

func (h *handler) addSection(ctx context.Context, inputs Inputs) error {
	tmpl, err := h.chooseTemplate(catalog.TagSection, inputs)
	if err != nil {
		return err
	}

	name, err := scaffold.AskValue(h.prompter, "Section name", inputs.Name, validation.IsValidTemplateName)
	if err != nil {
		return err
	}

	sourceFile, err := scaffold.AskValue(h.prompter, "Source file to reference the section from", inputs.SourceFile, func(s string) error {
		return validation.IsValidSourceFile(h.absolute(s))
	})
	if err != nil {
		return err
	}

	line := inputs.Line
	if !inputs.LineSet {
		answer, err := scaffold.AskValue(h.prompter, "Line to insert the section tag at", "", validateLine)
		if err != nil {
			return err
		}
		line, _ = strconv.Atoi(answer)
	}

	target, err := h.orchestrator.AddSection(ctx, tmpl, scaffold.SectionRequest{
		Name:       name,
		SourceFile: h.absolute(sourceFile),
		Line:       line,
	})
	if err != nil {
		return err
	}

	ui.Line()
	ui.Success(fmt.Sprintf("Section %s created in %s", scaffold.TagName(name), h.relative(target)))
	ui.Dim(fmt.Sprintf("Referenced from %s", h.relative(h.absolute(sourceFile))))
	ui.Line()
	return nil
}

func (h *handler) chooseTemplate(tag catalog.Tag, inputs Inputs) (catalog.Template, error) {
	tmpl, err := scaffold.ChooseTemplate(h.prompter, h.catalog, tag, inputs.Template)
	if err != nil {
		return catalog.Template{}, err
	}
	if inputs.Version != "" {
		tmpl.Version = inputs.Version
	}
	h.log.Debug().Msgf("Using %s template %s@%s", tag, tmpl.NpmName, tmpl.Version)
	return tmpl, nil
}

func (h *handler) absolute(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(h.cfg.WorkDir, path)
}

func (h *handler) relative(path string) string {
	if rel, err := filepath.Rel(h.cfg.WorkDir, path); err == nil {
		return rel
	}
	return path
}

func validateLine(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("line must be a number, 0 or greater")
	}
	return nil
}
