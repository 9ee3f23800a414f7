package validation

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
)

const (
	maxTemplateNameLength = 64
	maxPackageNameLength  = 214
)

var (
	// TemplateNameRegex matches names usable as a directory and a component tag.
	TemplateNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

	npmNameRegex = regexp.MustCompile(`^(?:@[a-z0-9-~][a-z0-9-._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)
)

func stringField(fl validator.FieldLevel) string {
	field := fl.Field()
	if field.Kind() != reflect.String {
		panic(fmt.Sprintf("input field name is not a string: %s", fl.FieldName()))
	}
	return field.String()
}

func isTemplateName(fl validator.FieldLevel) bool {
	return IsValidTemplateName(stringField(fl)) == nil
}

func isProjectName(fl validator.FieldLevel) bool {
	return IsValidProjectName(stringField(fl)) == nil
}

func isNpmName(fl validator.FieldLevel) bool {
	return IsValidNpmName(stringField(fl)) == nil
}

func isNpmVersion(fl validator.FieldLevel) bool {
	return IsValidNpmVersion(stringField(fl)) == nil
}

func isSourceFile(fl validator.FieldLevel) bool {
	return IsValidSourceFile(stringField(fl)) == nil
}

// IsValidTemplateName checks a page or section name.
func IsValidTemplateName(name string) error {
	if name == "" {
		return fmt.Errorf("template name can't be an empty string")
	}

	if len(name) > maxTemplateNameLength {
		return fmt.Errorf("template name is too long, limit is %d characters", maxTemplateNameLength)
	}

	if !TemplateNameRegex.MatchString(name) {
		return fmt.Errorf("template name must start with a letter and can only contain letters (a-z, A-Z), numbers (0-9), dashes (-), and underscores (_)")
	}

	return nil
}

// IsValidProjectName checks a name that becomes the "name" of a new package.json.
func IsValidProjectName(projectName string) error {
	if projectName == "" {
		return fmt.Errorf("project name can't be an empty string")
	}
	if strings.HasPrefix(projectName, "@") {
		return fmt.Errorf("project name can't be scoped")
	}
	return IsValidNpmName(projectName)
}

// IsValidNpmName checks registry package naming rules, scoped names included.
func IsValidNpmName(name string) error {
	if name == "" {
		return fmt.Errorf("package name can't be an empty string")
	}

	if len(name) > maxPackageNameLength {
		return fmt.Errorf("package name is too long, limit is %d characters", maxPackageNameLength)
	}

	if !npmNameRegex.MatchString(name) {
		return fmt.Errorf("package name can only contain lowercase letters, numbers, and the characters - . _ ~ with an optional @scope/ prefix")
	}

	return nil
}

// IsValidNpmVersion accepts "latest" or a strict semantic version.
func IsValidNpmVersion(version string) error {
	if version == "latest" {
		return nil
	}
	if _, err := semver.StrictNewVersion(version); err != nil {
		return fmt.Errorf("version must be \"latest\" or a semantic version: %w", err)
	}
	return nil
}

// IsValidSourceFile checks that path is an existing regular file the CLI can open.
func IsValidSourceFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("source file %s does not exist", path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("source file %s is not readable: %w", path, err)
	}
	return file.Close()
}
