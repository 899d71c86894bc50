package httpapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultBaseURL is the public application-commands API root.
const DefaultBaseURL = "https://discord.com/api/v10"

// Config holds the HTTP registry endpoint and credentials.
type Config struct {
	BaseURL       string        `env:"CMDSYNC_API_BASE_URL" envDefault:"https://discord.com/api/v10"`
	ApplicationID string        `env:"CMDSYNC_APPLICATION_ID"`
	BotToken      string        `env:"CMDSYNC_BOT_TOKEN"`
	Timeout       time.Duration `env:"CMDSYNC_HTTP_TIMEOUT" envDefault:"15s"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports missing required fields.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ApplicationID) == "" {
		missing = append(missing, "CMDSYNC_APPLICATION_ID")
	}
	if strings.TrimSpace(c.BotToken) == "" {
		missing = append(missing, "CMDSYNC_BOT_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("http registry: missing %s", strings.Join(missing, ", "))
	}
	return nil
}
