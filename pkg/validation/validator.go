// Package validation validates caller-facing inputs: the generation
// options record (struct tags) and annotation naming.
package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxAnnotationLength = 100
	MaxOverrides        = 100

	// Annotation group names follow the anatomical-term convention:
	// word characters plus spaces, slashes and dashes.
	annotationPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 _/().-]*$`)
)

func init() {
	validate = validator.New()
}

// Struct validates any struct against its validate tags.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateAnnotationName validates an annotation group name.
func ValidateAnnotationName(name string) error {
	if name == "" {
		return errors.New("annotation name cannot be empty")
	}
	if len(name) > MaxAnnotationLength {
		return fmt.Errorf("annotation name '%s' exceeds maximum length of %d characters", name, MaxAnnotationLength)
	}
	if !annotationPattern.MatchString(name) {
		return fmt.Errorf("annotation name '%s' contains invalid characters", name)
	}
	return nil
}

// ValidateOverrides validates a sparse per-annotation count override map:
// well-formed annotation names, counts at least min.
func ValidateOverrides(field string, overrides map[string]int, min int) error {
	if len(overrides) > MaxOverrides {
		return fmt.Errorf("%s: maximum %d overrides allowed, got %d", field, MaxOverrides, len(overrides))
	}
	for name, count := range overrides {
		if err := ValidateAnnotationName(name); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if count < min {
			return fmt.Errorf("%s: override for '%s' must be at least %d, got %d", field, name, min, count)
		}
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
