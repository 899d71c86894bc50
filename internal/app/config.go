package app

import (
	"strconv"

	"github.com/cristianoliveira/cmdsync/internal/config"
	"github.com/cristianoliveira/cmdsync/internal/ports"
)

// globalConfig reads the process-wide configuration loaded by config.Load.
type globalConfig struct{}

// GlobalConfig returns a ports.ConfigProvider backed by the config package.
func GlobalConfig() ports.ConfigProvider {
	return globalConfig{}
}

func (globalConfig) GetConfigBool(key string, defaultValue bool) bool {
	return config.GetBool(key, defaultValue)
}

func (globalConfig) GetConfigString(key, defaultValue string) string {
	return config.Get(key, defaultValue)
}

func (globalConfig) GetConfigInt(key string, defaultValue int) int {
	return config.GetInt(key, defaultValue)
}

func (globalConfig) GetConfigList(key string) []string {
	return config.GetList(key)
}

// MapConfig is a static ports.ConfigProvider, mostly for tests and embedding.
type MapConfig map[string]string

func (m MapConfig) GetConfigBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(m[key])
	if err != nil {
		return defaultValue
	}
	return v
}

func (m MapConfig) GetConfigString(key, defaultValue string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return defaultValue
}

func (m MapConfig) GetConfigInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(m[key])
	if err != nil {
		return defaultValue
	}
	return n
}

func (m MapConfig) GetConfigList(key string) []string {
	return config.SplitList(m[key])
}
