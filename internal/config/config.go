// Package config provides configuration loading.
//
// Values are resolved as defaults, then environment (CMDSYNC_*), then the
// TOML config file, then environment again so env always wins, and finally
// normalized by the registered validators.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/cristianoliveira/cmdsync/internal/colors"
	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables read as configuration.
const EnvPrefix = "CMDSYNC_"

// File permission constants
const (
	// FileModeDir is the permission for directories (rwxr-xr-x)
	FileModeDir os.FileMode = 0755
	// FileModeFile is the permission for data files (rw-r--r--)
	FileModeFile os.FileMode = 0644

	FileExtTOML  = ".toml"
	FileExtYAML  = ".yaml"
	FileExtYML   = ".yml"
	FileExtJSON  = ".json"
	FileExtJSONC = ".jsonc"
)

var (
	config   map[string]string
	defaults map[string]string
	mu       sync.RWMutex
)

func init() {
	initValidators()
}

// Load (re)initializes configuration.
func Load() {
	mu.Lock()
	defer mu.Unlock()

	config = make(map[string]string)
	defaults = make(map[string]string)

	setDefaults()
	loadFromEnv()
	loadFromFile()
	loadFromEnv()
	validate()
	computeDirs()
}

// setDefaults populates config with default values.
func setDefaults() {
	home, _ := os.UserHomeDir()
	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome == "" {
		xdgConfigHome = filepath.Join(home, ".config")
	}
	xdgStateHome := os.Getenv("XDG_STATE_HOME")
	if xdgStateHome == "" {
		xdgStateHome = filepath.Join(home, ".local", "state")
	}

	setDefault("config_dir", filepath.Join(xdgConfigHome, "cmdsync"))
	setDefault("state_dir", filepath.Join(xdgStateHome, "cmdsync"))
	setDefault("prefix", "!")
	setDefault("devs", "")
	setDefault("testers", "")
	setDefault("registry_backend", "sqlite")
	setDefault("registry_scope", "")
	setDefault("options_order_sensitive", "true")
	setDefault("events_failure_mode", "warn")
	setDefault("events_async", "false")
	setDefault("events_async_timeout", "30")
	setDefault("max_event_scripts", "10")
	setDefault("dispatch_concurrency", "8")
	setDefault("watch_debounce", "500ms")
	setDefault("watch_retry", "5s")
	setDefault("logging_enabled", "false")
	setDefault("logging_level", "info")
	setDefault("logging_max_files", "10")
	setDefault("debug", "false")
	setDefault("quiet", "false")
}

func setDefault(key, value string) {
	config[key] = value
	defaults[key] = value
}

// loadFromFile reads configuration from CMDSYNC_CONFIG_PATH or
// <config_dir>/config.toml when present.
func loadFromFile() {
	configPath := os.Getenv(EnvPrefix + "CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join(config["config_dir"], "config"+FileExtTOML)
		if _, err := os.Stat(configPath); err != nil {
			return
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		colors.Debug(fmt.Sprintf("unable to read config file %s: %v", configPath, err))
		return
	}

	raw, err := decodeConfigFile(configPath, data)
	if err != nil {
		colors.Warning(fmt.Sprintf("unable to parse config file %s: %v", configPath, err))
		return
	}

	for k, v := range raw {
		key := strings.ToLower(k)
		converted, ok := coerceConfigValue(v)
		if !ok {
			colors.Warning(fmt.Sprintf("unsupported config value type for %s: %T", key, v))
			continue
		}
		config[key] = converted
	}
}

// decodeConfigFile decodes TOML, YAML or JSON (comments allowed) by extension.
func decodeConfigFile(path string, data []byte) (map[string]any, error) {
	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case FileExtTOML:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case FileExtYAML, FileExtYML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case FileExtJSON, FileExtJSONC:
		if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	return raw, nil
}

// coerceConfigValue converts a TOML value to its string representation.
// Arrays of scalars become comma-separated lists.
func coerceConfigValue(value any) (string, bool) {
	switch typed := value.(type) {
	case string:
		return typed, true
	case int:
		return strconv.Itoa(typed), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	case uint64:
		return strconv.FormatUint(typed, 10), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(typed), true
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			s, ok := coerceConfigValue(item)
			if !ok {
				return "", false
			}
			if _, nested := item.([]any); nested {
				return "", false
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), true
	default:
		return "", false
	}
}

// loadFromEnv applies CMDSYNC_* environment overrides.
func loadFromEnv() {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, EnvPrefix) {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(parts[0], EnvPrefix))
		config[key] = parts[1]
	}
}

// validate normalizes values through the registered validators.
func validate() {
	for key, value := range config {
		validator := getValidator(key)
		if validator == nil {
			continue
		}
		defaultValue := defaults[key]
		normalized, err := validator(key, value, defaultValue)
		if err != nil {
			colors.Warning(fmt.Sprintf("validation error for %s: %v, using default: %s", key, err, defaultValue))
			config[key] = defaultValue
			continue
		}
		config[key] = normalized
	}
}

// computeDirs fills directories derived from config_dir and state_dir
// unless they were set explicitly.
func computeDirs() {
	if config["commands_dir"] == "" {
		config["commands_dir"] = filepath.Join(config["config_dir"], "commands")
	}
	if config["buttons_dir"] == "" {
		config["buttons_dir"] = filepath.Join(config["config_dir"], "buttons")
	}
	if config["events_dir"] == "" {
		config["events_dir"] = filepath.Join(config["config_dir"], "events")
	}
	if config["registry_db_path"] == "" {
		config["registry_db_path"] = filepath.Join(config["state_dir"], "registry.db")
	}
}

// Get returns a configuration value or default.
func Get(key, defaultValue string) string {
	mu.RLock()
	defer mu.RUnlock()
	if val, ok := config[key]; ok {
		return val
	}
	return defaultValue
}

// GetInt returns a configuration value as integer, or default.
func GetInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(Get(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

// GetBool returns a configuration value as boolean, or default.
func GetBool(key string, defaultValue bool) bool {
	switch normalizeBool(Get(key, "")) {
	case "true":
		return true
	case "false":
		return false
	default:
		return defaultValue
	}
}

// GetList returns a comma-separated value as a trimmed list without empties.
func GetList(key string) []string {
	return SplitList(Get(key, ""))
}

// SplitList splits a comma-separated list, trimming items and dropping empties.
func SplitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Set overrides a single value until the next Load. Used by CLI flags.
func Set(key, value string) {
	mu.Lock()
	defer mu.Unlock()
	if config == nil {
		config = make(map[string]string)
	}
	config[key] = value
}

// reset clears the loaded configuration. Test helper.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	config = nil
	defaults = nil
}
