package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmp, "state"))
	t.Cleanup(reset)
	return tmp
}

func TestLoadAndGet(t *testing.T) {
	isolate(t)
	Load()

	got := Get("missing", "default")
	require.Equal(t, "default", got)
	require.Equal(t, "!", Get("prefix", ""))
	require.Equal(t, "sqlite", Get("registry_backend", ""))
	require.Equal(t, 8, GetInt("dispatch_concurrency", 0))
	require.True(t, GetBool("options_order_sensitive", false))
	require.Equal(t, "5s", Get("watch_retry", ""))
}

func TestComputedDirs(t *testing.T) {
	tmp := isolate(t)
	Load()

	configDir := filepath.Join(tmp, "config", "cmdsync")
	require.Equal(t, configDir, Get("config_dir", ""))
	require.Equal(t, filepath.Join(configDir, "commands"), Get("commands_dir", ""))
	require.Equal(t, filepath.Join(configDir, "buttons"), Get("buttons_dir", ""))
	require.Equal(t, filepath.Join(configDir, "events"), Get("events_dir", ""))
	require.Equal(t, filepath.Join(tmp, "state", "cmdsync", "registry.db"), Get("registry_db_path", ""))
}

func TestExplicitDirsWin(t *testing.T) {
	isolate(t)
	t.Setenv("CMDSYNC_COMMANDS_DIR", "/srv/commands")
	Load()
	require.Equal(t, "/srv/commands", Get("commands_dir", ""))
}

func TestGetList(t *testing.T) {
	isolate(t)
	t.Setenv("CMDSYNC_DEVS", " 111, 222 ,,333 ")
	Load()
	require.Equal(t, []string{"111", "222", "333"}, GetList("devs"))
	require.Nil(t, GetList("testers"))
}

func TestSetOverridesUntilReload(t *testing.T) {
	isolate(t)
	Load()
	Set("prefix", "?")
	require.Equal(t, "?", Get("prefix", ""))
	Load()
	require.Equal(t, "!", Get("prefix", ""))
}

func TestConfigFileArraysAndTypes(t *testing.T) {
	tmp := isolate(t)
	path := filepath.Join(tmp, "cmdsync.toml")
	content := `
devs = ["1001", "1002"]
dispatch_concurrency = 3
options_order_sensitive = false
watch_debounce = "2s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), FileModeFile))
	t.Setenv("CMDSYNC_CONFIG_PATH", path)
	Load()

	require.Equal(t, []string{"1001", "1002"}, GetList("devs"))
	require.Equal(t, 3, GetInt("dispatch_concurrency", 0))
	require.False(t, GetBool("options_order_sensitive", true))
	require.Equal(t, "2s", Get("watch_debounce", ""))
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name      string
		validator Validator
		value     string
		want      string
	}{
		{"positive int ok", PositiveIntValidator(), "4", "4"},
		{"positive int zero", PositiveIntValidator(), "0", "10"},
		{"positive int junk", PositiveIntValidator(), "abc", "10"},
		{"enum lowercases", EnumValidator(map[string]bool{"http": true}), "HTTP", "http"},
		{"enum unknown", EnumValidator(map[string]bool{"http": true}), "grpc", "10"},
		{"bool yes", BoolValidator(), "yes", "true"},
		{"bool off", BoolValidator(), "off", "false"},
		{"bool junk", BoolValidator(), "maybe", "10"},
		{"duration", DurationValidator(false), "1m30s", "1m30s"},
		{"duration negative", DurationValidator(false), "-1s", "10"},
		{"prefix ok", PrefixValidator(), "?", "?"},
		{"prefix blank", PrefixValidator(), "  ", "10"},
		{"prefix space", PrefixValidator(), "a b", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.validator("key", tt.value, "10")
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRegisterValidatorTwicePanics(t *testing.T) {
	require.Panics(t, func() {
		RegisterValidator("prefix", PrefixValidator())
	})
}
