// Package config handles controller configuration for game-bridge.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when a field is absent from the file.
const (
	DefaultListen      = "127.0.0.1:8765"
	DefaultCallTimeout = 10 * time.Second
)

// Config is the controller configuration (game-bridge.yaml).
type Config struct {
	// Listen is the address the controller listens on for the bridge.
	Listen string `yaml:"listen"`

	// CallTimeoutMs bounds how long a single command waits for its
	// response, in milliseconds.
	CallTimeoutMs int `yaml:"callTimeoutMs"`
}

// CallTimeout returns the configured per-call timeout.
func (c *Config) CallTimeout() time.Duration {
	if c.CallTimeoutMs <= 0 {
		return DefaultCallTimeout
	}
	return time.Duration(c.CallTimeoutMs) * time.Millisecond
}

// Load loads configuration from a file and applies defaults and the
// GAME_BRIDGE_LISTEN environment override.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromDir looks for game-bridge.yaml or game-bridge.yml in the
// directory. A missing file is not an error; defaults apply.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"game-bridge.yaml", "game-bridge.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := &Config{}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if env := os.Getenv("GAME_BRIDGE_LISTEN"); env != "" {
		c.Listen = env
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
}
