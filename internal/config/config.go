// Package config loads the editor's TOML configuration file.
//
// A missing file is not an error; the defaults apply. Command-line flags
// are applied on top by the caller.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the on-disk configuration.
type Config struct {
	// Prompt is shown before each command when non-empty.
	Prompt string `toml:"prompt"`
	// Verbose prints error messages instead of "?".
	Verbose bool `toml:"verbose"`
	// Silent suppresses byte counts and diagnostics.
	Silent bool `toml:"silent"`
	Log    Log  `toml:"log"`
}

// Log configures diagnostic logging.
type Log struct {
	// Level is a logrus level name.
	Level string `toml:"level"`
	// File, when set, receives the log instead of stderr.
	File string `toml:"file"`
	// MaxSizeMB is the size at which File is rotated.
	MaxSizeMB int `toml:"max_size_mb"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: Log{
			Level:     "warn",
			MaxSizeMB: 10,
		},
	}
}

// Path returns the default configuration file location.
func Path() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "ed", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ed", "config.toml")
}

// Load reads the file at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), errors.Wrapf(err, "load config %s", path)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return Default(), errors.Errorf("load config %s: unknown key %q", path, undec[0].String())
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = Default().Log.MaxSizeMB
	}
	return cfg, nil
}
