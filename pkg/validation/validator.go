package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate

	MaxLabels      = 10
	MaxLabelLength = 50
	MaxProperties  = 100
	MaxPropertyKey = 100

	labelPattern   = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	propKeyPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

// NodeRequest describes a node to be written to the graph
type NodeRequest struct {
	Labels     []string       `yaml:"labels" validate:"max=10,dive,min=1,max=50"`
	Properties map[string]any `yaml:"properties" validate:"omitempty,max=100"`
}

// IndexRequest names an index by label and property
type IndexRequest struct {
	Label    string `yaml:"label" validate:"required,max=50"`
	Property string `yaml:"property" validate:"required,max=100"`
}

// Struct validates any struct carrying validate tags.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateNodeRequest validates a node creation request
func ValidateNodeRequest(req *NodeRequest) error {
	if req == nil {
		return errors.New("node request cannot be nil")
	}
	if err := Struct(req); err != nil {
		return err
	}

	for _, label := range req.Labels {
		if err := ValidateLabel(label); err != nil {
			return fmt.Errorf("Labels: %w", err)
		}
	}

	for key := range req.Properties {
		if err := ValidatePropertyKey(key); err != nil {
			return fmt.Errorf("Properties: %w", err)
		}
	}

	return nil
}

// ValidateIndexRequest validates the label and property an index is keyed by
func ValidateIndexRequest(req *IndexRequest) error {
	if req == nil {
		return errors.New("index request cannot be nil")
	}
	if err := Struct(req); err != nil {
		return err
	}
	if err := ValidateLabel(req.Label); err != nil {
		return fmt.Errorf("Label: %w", err)
	}
	if err := ValidatePropertyKey(req.Property); err != nil {
		return fmt.Errorf("Property: %w", err)
	}
	return nil
}

// ValidateLabel validates a node label
func ValidateLabel(label string) error {
	if label == "" {
		return errors.New("label cannot be empty")
	}
	if len(label) > MaxLabelLength {
		return fmt.Errorf("label '%s' exceeds maximum length of %d characters", label, MaxLabelLength)
	}
	if !labelPattern.MatchString(label) {
		return fmt.Errorf("label '%s' contains invalid characters (only alphanumeric and underscore allowed)", label)
	}
	return nil
}

// ValidatePropertyKey validates a property key
func ValidatePropertyKey(key string) error {
	if key == "" {
		return errors.New("property key cannot be empty")
	}
	if len(key) > MaxPropertyKey {
		return fmt.Errorf("property key '%s' exceeds maximum length of %d characters", key, MaxPropertyKey)
	}
	if !propKeyPattern.MatchString(key) {
		return fmt.Errorf("property key '%s' is invalid (must start with letter or underscore, followed by alphanumeric or underscore)", key)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
