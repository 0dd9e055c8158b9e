package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peter2500zz/mod-auto-download/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modget.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
game_version = "1.20.1"
loader = "fabric"
mods = ["sodium", "lithium"]
server = false
allow_optional = true
workers = 8
download_dir = "client-mods"
requests_per_minute = 120
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "1.20.1", cfg.GameVersion)
	require.Equal(t, "fabric", cfg.Loader)
	require.Equal(t, []string{"sodium", "lithium"}, cfg.Mods)
	require.True(t, cfg.Client, "unset keys keep their defaults")
	require.False(t, cfg.Server)
	require.True(t, cfg.AllowOptional)
	require.Equal(t, 8, cfg.Workers)
	require.Equal(t, "client-mods", cfg.DownloadDir)
	require.Equal(t, 120, cfg.RequestsPerMinute)
	require.Equal(t, "dependencies.html", cfg.GraphOut)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := writeConfig(t, "game_version = [broken")
	_, err := loadConfig(path)
	require.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestConfigValidate(t *testing.T) {
	valid := defaultConfig()
	valid.GameVersion = "1.20.1"
	valid.Loader = "fabric"
	valid.Mods = []string{"sodium"}
	require.NoError(t, valid.validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing game version", func(c *Config) { c.GameVersion = "" }},
		{"missing loader", func(c *Config) { c.Loader = "" }},
		{"no mods", func(c *Config) { c.Mods = nil }},
		{"neither side", func(c *Config) { c.Client, c.Server = false, false }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.validate()
			require.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "got %v", err)
		})
	}
}
