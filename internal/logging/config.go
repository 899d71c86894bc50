package logging

import (
	"os"
	"path/filepath"

	"github.com/cristianoliveira/cmdsync/internal/config"
)

const logFilePrefix = "cmdsync_"

// Config holds logging configuration.
type Config struct {
	// Enabled determines whether file logging is active.
	Enabled bool
	// Level is the minimum log level to record.
	Level string
	// MaxFiles is the maximum number of log files to retain.
	MaxFiles int
	// Command is the name of the command being executed.
	Command string
	// PID is the process ID.
	PID int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		Level:    "info",
		MaxFiles: 10,
		Command:  filepath.Base(os.Args[0]),
		PID:      os.Getpid(),
	}
}

// FromGlobalConfig creates a logging Config from the global configuration.
// debug forces the debug level; quiet forces error unless debug is also set.
func FromGlobalConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = config.GetBool("logging_enabled", false)
	cfg.Level = config.Get("logging_level", "info")
	cfg.MaxFiles = config.GetInt("logging_max_files", 10)
	switch {
	case config.GetBool("debug", false):
		cfg.Level = "debug"
	case config.GetBool("quiet", false):
		cfg.Level = "error"
	}
	return cfg
}

// LogDir returns the directory where log files are stored:
// {state_dir}/logs when writable, otherwise {os.TempDir()}/cmdsync/logs.
func LogDir() (string, error) {
	stateDir := config.Get("state_dir", "")
	if stateDir != "" {
		logDir := filepath.Join(stateDir, "logs")
		if err := os.MkdirAll(logDir, 0700); err == nil && testFileWrite(logDir) {
			return logDir, nil
		}
	}
	tempBase := filepath.Join(os.TempDir(), "cmdsync", "logs")
	if err := os.MkdirAll(tempBase, 0700); err != nil {
		return "", err
	}
	return tempBase, nil
}

// testFileWrite attempts to create a temporary file in dir to verify write permissions.
func testFileWrite(dir string) bool {
	tmp := filepath.Join(dir, ".write_test")
	f, err := os.Create(tmp)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(tmp)
	return true
}
