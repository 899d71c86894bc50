package command

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxNameLength is the longest accepted command or option name.
	MaxNameLength = 32
	// MaxDescriptionLength is the longest accepted description.
	MaxDescriptionLength = 100
)

var namePattern = regexp.MustCompile(`^[\w-]{1,32}$`)

// ValidationError reports a malformed field at construction time.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, fmt.Sprint(e.Value), e.Reason)
}

// ValidateName checks a command or option name and returns it lowercased.
func ValidateName(name string) (string, error) {
	if !namePattern.MatchString(name) {
		return "", &ValidationError{
			Field:  "name",
			Value:  name,
			Reason: "must be 1-32 characters long and contain only letters, numbers, hyphens, or underscores",
		}
	}
	return strings.ToLower(name), nil
}

// ValidateDescription checks that a description is 1-100 characters long.
func ValidateDescription(description string) (string, error) {
	n := utf8.RuneCountInString(description)
	if n < 1 || n > MaxDescriptionLength {
		return "", &ValidationError{
			Field:  "description",
			Value:  description,
			Reason: fmt.Sprintf("must be between 1 and %d characters", MaxDescriptionLength),
		}
	}
	return description, nil
}

// ValidateOptions validates every option and returns normalized copies.
// One bad element fails the whole sequence.
func ValidateOptions(options []OptionSpec) ([]OptionSpec, error) {
	out := make([]OptionSpec, 0, len(options))
	for i, opt := range options {
		if opt.Name == "" || opt.Description == "" {
			return nil, &ValidationError{
				Field:  fmt.Sprintf("options[%d]", i),
				Value:  opt.Name,
				Reason: "each option must have a name and description",
			}
		}
		name, err := ValidateName(opt.Name)
		if err != nil {
			return nil, fmt.Errorf("options[%d]: %w", i, err)
		}
		description, err := ValidateDescription(opt.Description)
		if err != nil {
			return nil, fmt.Errorf("options[%d]: %w", i, err)
		}
		out = append(out, OptionSpec{
			Name:        name,
			Description: description,
			Attrs:       cloneAttrs(opt.Attrs),
		})
	}
	return out, nil
}

// OptionsFromMaps converts loosely typed option maps (manifests, registry
// payloads) into OptionSpecs. Name and description must be strings when set.
func OptionsFromMaps(raw []map[string]any) ([]OptionSpec, error) {
	out := make([]OptionSpec, 0, len(raw))
	for i, m := range raw {
		var opt OptionSpec
		for k, v := range m {
			switch k {
			case "name", "description":
				s, ok := v.(string)
				if !ok {
					return nil, &ValidationError{
						Field:  fmt.Sprintf("options[%d].%s", i, k),
						Value:  v,
						Reason: "must be a string",
					}
				}
				if k == "name" {
					opt.Name = s
				} else {
					opt.Description = s
				}
			default:
				if opt.Attrs == nil {
					opt.Attrs = make(map[string]any)
				}
				opt.Attrs[k] = v
			}
		}
		out = append(out, opt)
	}
	return out, nil
}

func cloneAttrs(attrs map[string]any) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
