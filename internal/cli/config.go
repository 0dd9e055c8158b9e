package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/peter2500zz/mod-auto-download/pkg/errors"
)

// Config holds the recognized options. Values may come from a TOML file,
// from flags, or both; flags win when both are set.
type Config struct {
	GameVersion       string   `toml:"game_version"`
	Loader            string   `toml:"loader"`
	Mods              []string `toml:"mods"`
	Client            bool     `toml:"client"`
	Server            bool     `toml:"server"`
	AllowOptional     bool     `toml:"allow_optional"`
	Workers           int      `toml:"workers"`
	DownloadDir       string   `toml:"download_dir"`
	RequestsPerMinute int      `toml:"requests_per_minute"`
	GraphOut          string   `toml:"graph_out"`
}

// defaultConfig returns the built-in defaults applied before any file or flag.
func defaultConfig() Config {
	return Config{
		Client:            true,
		Server:            true,
		Workers:           4,
		DownloadDir:       "mods",
		RequestsPerMinute: 300,
		GraphOut:          "dependencies.html",
	}
}

// loadConfig decodes a TOML config file over the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	return cfg, nil
}

// validate checks the merged configuration.
func (c *Config) validate() error {
	if c.GameVersion == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "a target game version is required")
	}
	if c.Loader == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "a target loader is required")
	}
	if len(c.Mods) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "at least one mod must be given")
	}
	if !c.Client && !c.Server {
		return errors.New(errors.ErrCodeInvalidConfig, "requiring neither client nor server support selects nothing")
	}
	if c.Workers < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be at least 1")
	}
	return nil
}
