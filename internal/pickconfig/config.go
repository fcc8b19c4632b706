// Package pickconfig provides configuration loading for skypick.
//
// Configuration lives in a skypick.toml discovered by walking up the
// directory tree from the working directory, or at the path named by
// the SKYPICK_CONFIG environment variable, or the --config flag.
package pickconfig

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigTOML is the config filename looked up during discovery.
const ConfigTOML = "skypick.toml"

// EnvConfig is the environment variable naming an explicit config path.
const EnvConfig = "SKYPICK_CONFIG"

// Config is the skypick configuration.
type Config struct {
	// Root is the test root directory, relative to the config file's
	// directory (or the working directory without a config file).
	Root string `toml:"root"`

	// Patterns are the test file patterns; empty means the defaults
	// (*_test.star, test_*.star).
	Patterns []string `toml:"patterns"`

	// Finder is the fuzzy finder binary.
	Finder string `toml:"finder"`

	// Pager is the preview pager binary; empty disables paging and
	// falls back to plain line excerpting.
	Pager string `toml:"pager"`

	// Multi enables multi-select in the picker.
	Multi bool `toml:"multi"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Root:   "tests",
		Finder: "fzf",
		Pager:  "bat",
		Multi:  true,
	}
}

// Discover resolves the configuration.
//
// Resolution order:
//  1. explicit path (from the --config flag), when non-empty
//  2. the SKYPICK_CONFIG environment variable
//  3. skypick.toml found walking up from startDir
//  4. defaults
//
// Returns the config and the path it was loaded from ("" for defaults).
func Discover(explicit, startDir string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := LoadTOMLConfig(explicit)
		return cfg, explicit, err
	}
	if envPath := os.Getenv(EnvConfig); envPath != "" {
		cfg, err := LoadTOMLConfig(envPath)
		if err != nil {
			return nil, "", fmt.Errorf("loading config from %s: %w", EnvConfig, err)
		}
		return cfg, envPath, nil
	}

	if startDir == "" {
		var err error
		startDir, err = os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("getting working directory: %w", err)
		}
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		path := filepath.Join(dir, ConfigTOML)
		if _, err := os.Stat(path); err == nil {
			cfg, err := LoadTOMLConfig(path)
			return cfg, path, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return DefaultConfig(), "", nil
		}
		dir = parent
	}
}
