package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var customValidators = map[string]validator.Func{
	"npm_name":      isNpmName,
	"npm_version":   isNpmVersion,
	"project_name":  isProjectName,
	"source_file":   isSourceFile,
	"template_name": isTemplateName,
}

var customTranslations = map[string]string{
	"npm_name":      "{0} must be a valid npm package name: {1}",
	"npm_version":   "{0} must be \"latest\" or a semantic version: {1}",
	"oneof":         "{0} must be one of the supported values: {1}",
	"project_name":  "{0} must be a lowercase npm package name of at most 214 characters: {1}",
	"source_file":   "{0} must be an existing readable file: {1}",
	"template_name": "{0} must start with a letter and contain only letters, numbers, dashes and underscores: {1}",
}

// ValidationError is one rejected input. Field is the flag or argument name
// the user typed.
type ValidationError struct {
	Field  string
	Detail string
}

type ValidationErrors []ValidationError

func NewValidationError(key, detail string) error {
	return &ValidationError{
		Field:  key,
		Detail: detail,
	}
}

func (e *ValidationError) Error() string {
	return e.Detail
}

func (ve ValidationErrors) Error() string {
	var b strings.Builder
	b.WriteString("validation error\n")
	for _, err := range ve {
		b.WriteString(err.Detail)
		b.WriteString("\n")
	}
	return b.String()
}

// Detail returns the message recorded for field.
func (ve ValidationErrors) Detail(field string) (string, bool) {
	for _, err := range ve {
		if err.Field == field {
			return err.Detail, true
		}
	}
	return "", false
}

// Validator wraps a validator instance and a translator.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewValidator creates a Validator with the CLI's name rules and English
// messages. Struct fields are reported under their "cli" tag.
func NewValidator() (*Validator, error) {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if cliTag := fld.Tag.Get("cli"); cliTag != "" {
			return cliTag
		}
		return fld.Name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, found := uni.GetTranslator("en")
	if !found {
		return nil, errors.New("translator not found")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	for name, fn := range customValidators {
		if err := validate.RegisterValidation(name, fn); err != nil {
			return nil, err
		}
	}

	v := &Validator{validate: validate, trans: trans}
	for tag, msg := range customTranslations {
		if err := v.RegisterCustomTranslation(tag, msg); err != nil {
			return nil, fmt.Errorf("failed to register custom translation for %s: %w", tag, err)
		}
	}
	return v, nil
}

// RegisterCustomTranslation replaces the message of tag. {0} is the field
// name and {1} the rejected value.
func (v *Validator) RegisterCustomTranslation(tag, msg string) error {
	return v.validate.RegisterTranslation(tag, v.trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, msg, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field(), fmt.Sprintf("%v", fe.Value()))
			return t
		},
	)
}

// Struct validates s and returns ValidationErrors in field order.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	ves := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		ves = append(ves, ValidationError{
			Field:  fe.Field(),
			Detail: fe.Translate(v.trans),
		})
	}
	return ves
}
