package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cristianoliveira/cmdsync/internal/colors"
)

// Validator validates and normalizes a configuration value.
// Returns the normalized value and an error if validation fails.
type Validator func(key, value, defaultValue string) (normalized string, err error)

type validatorRegistry struct {
	mu         sync.RWMutex
	validators map[string]Validator
}

var registry = &validatorRegistry{
	validators: make(map[string]Validator),
}

// RegisterValidator registers a validator for a configuration key.
// Panics if a validator is already registered for the key.
func RegisterValidator(key string, validator Validator) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.validators[key]; exists {
		panic(fmt.Sprintf("validator already registered for key: %s", key))
	}
	registry.validators[key] = validator
}

func getValidator(key string) Validator {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.validators[key]
}

// PositiveIntValidator returns a validator that ensures a value is a positive integer.
func PositiveIntValidator() Validator {
	return func(key, value, defaultValue string) (string, error) {
		if value == "" {
			return defaultValue, nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			colors.Warning(fmt.Sprintf("invalid %s value '%s': must be a positive integer, using default: %s", key, value, defaultValue))
			return defaultValue, nil
		}
		return value, nil
	}
}

// EnumValidator returns a validator that ensures a value is one of the allowed values.
func EnumValidator(allowed map[string]bool) Validator {
	return func(key, value, defaultValue string) (string, error) {
		if value == "" {
			return defaultValue, nil
		}
		valueLower := strings.ToLower(value)
		if !allowed[valueLower] {
			colors.Warning(fmt.Sprintf("invalid %s value '%s': must be one of: %s; using default: %s", key, value, allowedValues(allowed), defaultValue))
			return defaultValue, nil
		}
		return valueLower, nil
	}
}

// BoolValidator returns a validator that normalizes boolean values to "true"/"false".
func BoolValidator() Validator {
	return func(key, value, defaultValue string) (string, error) {
		if value == "" {
			return defaultValue, nil
		}
		normalized := normalizeBool(value)
		if normalized != "true" && normalized != "false" {
			colors.Warning(fmt.Sprintf("invalid boolean value for %s: '%s', must be one of: 1, true, yes, on, 0, false, no, off; using default: %s", key, value, defaultValue))
			return defaultValue, nil
		}
		return normalized, nil
	}
}

// DurationValidator validates Go-style duration strings (e.g., 30s, 1m, 2h).
// When allowEmpty is true, empty values are preserved.
func DurationValidator(allowEmpty bool) Validator {
	return func(key, value, defaultValue string) (string, error) {
		if value == "" {
			if allowEmpty {
				return value, nil
			}
			return defaultValue, nil
		}
		duration, err := time.ParseDuration(value)
		if err != nil || duration < 0 {
			colors.Warning(fmt.Sprintf("invalid duration for %s: '%s', must be a Go-style duration (e.g. 30s, 5m); using default: %s", key, value, defaultValue))
			return defaultValue, nil
		}
		return duration.String(), nil
	}
}

// PrefixValidator rejects prefixes that are empty after trimming or contain whitespace.
func PrefixValidator() Validator {
	return func(key, value, defaultValue string) (string, error) {
		if strings.TrimSpace(value) == "" || strings.ContainsAny(value, " \t\n") {
			colors.Warning(fmt.Sprintf("invalid %s value '%s': must be a non-empty token without whitespace; using default: %s", key, value, defaultValue))
			return defaultValue, nil
		}
		return value, nil
	}
}

// initValidators registers all configuration validators.
func initValidators() {
	positiveInt := PositiveIntValidator()
	RegisterValidator("events_async_timeout", positiveInt)
	RegisterValidator("max_event_scripts", positiveInt)
	RegisterValidator("dispatch_concurrency", positiveInt)
	RegisterValidator("logging_max_files", positiveInt)

	RegisterValidator("registry_backend", EnumValidator(map[string]bool{"sqlite": true, "http": true, "memory": true}))
	RegisterValidator("events_failure_mode", EnumValidator(map[string]bool{"ignore": true, "warn": true, "abort": true}))
	RegisterValidator("logging_level", EnumValidator(map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}))

	boolValidator := BoolValidator()
	RegisterValidator("options_order_sensitive", boolValidator)
	RegisterValidator("events_async", boolValidator)
	RegisterValidator("logging_enabled", boolValidator)
	RegisterValidator("debug", boolValidator)
	RegisterValidator("quiet", boolValidator)

	RegisterValidator("watch_debounce", DurationValidator(false))
	RegisterValidator("watch_retry", DurationValidator(false))
	RegisterValidator("prefix", PrefixValidator())
}

// normalizeBool converts various boolean representations to "true"/"false".
func normalizeBool(val string) string {
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return "true"
	case "0", "false", "no", "off":
		return "false"
	default:
		return val
	}
}

// allowedValues returns a sorted, comma-separated string of allowed values.
func allowedValues(allowed map[string]bool) string {
	values := make([]string, 0, len(allowed))
	for k := range allowed {
		values = append(values, k)
	}
	sort.Strings(values)
	return strings.Join(values, ", ")
}
