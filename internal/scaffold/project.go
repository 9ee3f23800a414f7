package scaffold

import (
	"github.com/iancoleman/strcase"

	"github.com/arcane-labs/arcane-cli/internal/render"
)

const DefaultProjectVersion = "1.0.0"

// ProjectInfo is rendered into a new project and handed to custom installers.
type ProjectInfo struct {
	ProjectName string `json:"projectName"`
	ClassName   string `json:"className"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// NewProjectInfo derives the kebab-case class name from name.
func NewProjectInfo(name, version, description string) ProjectInfo {
	if version == "" {
		version = DefaultProjectVersion
	}
	return ProjectInfo{
		ProjectName: name,
		ClassName:   strcase.ToKebab(name),
		Version:     version,
		Description: description,
	}
}

// Data is the render variable bag for a project.
func (p ProjectInfo) Data() render.Data {
	return render.Data{
		"projectName": p.ProjectName,
		"className":   p.ClassName,
		"version":     p.Version,
		"description": p.Description,
	}
}
