package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ValidationError locates a config problem by line or by field.
type ValidationError struct {
	FilePath string
	Line     int
	Column   int
	Message  string
	Field    string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s': %s", e.FilePath, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// ValidateYAMLSyntax parses filePath as YAML. A missing or blank file is
// valid since defaults apply.
func ValidateYAMLSyntax(filePath string) error {
	data, err := os.ReadFile(filePath)
	switch {
	case os.IsNotExist(err):
		return nil
	case os.IsPermission(err):
		return &ValidationError{FilePath: filePath, Message: "permission denied"}
	case err != nil:
		return &ValidationError{FilePath: filePath, Message: err.Error()}
	case len(bytes.TrimSpace(data)) == 0:
		return nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		verr := &ValidationError{FilePath: filePath}
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			verr.Message = strings.Join(typeErr.Errors, "; ")
			return verr
		}
		verr.Line, verr.Column, verr.Message = yamlErrorPosition(err.Error())
		return verr
	}
	return nil
}

// ValidateConfigValues checks cfg against its struct tags and reports the
// first failing field by its config key.
func ValidateConfigValues(cfg *Configuration, filePath string) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, fieldErr := range validationErrors {
				return &ValidationError{
					FilePath: filePath,
					Field:    snakeCase(fieldErr.Field()),
					Message:  fieldMessage(fieldErr),
				}
			}
		}
		return &ValidationError{
			FilePath: filePath,
			Message:  err.Error(),
		}
	}

	if cfg.Organization == cfg.LegacyOrganization {
		return &ValidationError{
			FilePath: filePath,
			Field:    "legacy_organization",
			Message:  "must differ from organization",
		}
	}

	return nil
}

// yamlErrorPosition splits a yaml.v3 message like
// "yaml: line 5: could not find expected ':'" into position and text.
func yamlErrorPosition(msg string) (line, column int, text string) {
	if !strings.HasPrefix(msg, "yaml:") {
		return 0, 0, msg
	}
	text = msg
	if i := strings.LastIndex(msg, ": "); i > 0 {
		text = msg[i+2:]
	}
	if n, _ := fmt.Sscanf(msg, "yaml: line %d: column %d:", &line, &column); n == 2 {
		return line, column, text
	}
	if n, _ := fmt.Sscanf(msg, "yaml: line %d:", &line); n == 1 {
		return line, 1, text
	}
	return 0, 0, text
}

func fieldMessage(fieldErr validator.FieldError) string {
	param := fieldErr.Param()
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "valid options: " + strings.Join(strings.Fields(param), ", ")
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	}
	return "failed validation: " + fieldErr.Tag()
}

// snakeCase maps a Go field name to its config key, e.g. LegacyFormat to
// legacy_format.
func snakeCase(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
