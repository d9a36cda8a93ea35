// Package config loads the daemon's YAML configuration and applies
// defaults and validation so the rest of the program can trust what it is
// handed.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wfdlabs/castd/core"
)

var (
	ErrUnknownLinkKind = errors.New("config: unknown link kind")
	ErrEmptyInterface  = errors.New("config: link entry missing interface")
)

// LinkEntry declares one link the daemon creates at startup.
type LinkEntry struct {
	Kind      string `yaml:"kind"`
	Interface string `yaml:"interface"`
}

// Log controls logger construction.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Tracing mirrors observability.TracingConfig in YAML form.
type Tracing struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Config is the full daemon configuration.
type Config struct {
	// FriendlyName is the display name advertised for every new link.
	FriendlyName string `yaml:"friendly_name"`

	// CtrlDir holds wpa_supplicant's per-interface control sockets.
	CtrlDir string `yaml:"ctrl_dir"`

	APIAddr     string `yaml:"api_addr"`
	MetricsAddr string `yaml:"metrics_addr"`

	Log     Log       `yaml:"log"`
	Tracing Tracing   `yaml:"tracing"`
	Links   []LinkEntry `yaml:"links"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		FriendlyName: "castd",
		CtrlDir:      core.DefaultCtrlDir,
		APIAddr:      "127.0.0.1:7236",
		MetricsAddr:  "127.0.0.1:9100",
		Log:          Log{Level: "info", Format: "text"},
		Tracing:      Tracing{Exporter: "stdout", SampleRatio: 1},
	}
}

// Load reads the YAML file at path, fills in defaults for anything left
// unset and validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	def := Default()
	if c.FriendlyName == "" {
		c.FriendlyName = def.FriendlyName
	}
	if c.CtrlDir == "" {
		c.CtrlDir = def.CtrlDir
	}
	if c.APIAddr == "" {
		c.APIAddr = def.APIAddr
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = def.MetricsAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = def.Tracing.Exporter
	}
	if c.Tracing.SampleRatio <= 0 || c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = def.Tracing.SampleRatio
	}
}

func (c *Config) validate() error {
	for i, entry := range c.Links {
		if _, ok := core.KindFromString(entry.Kind); !ok {
			return fmt.Errorf("%w: links[%d] kind %q", ErrUnknownLinkKind, i, entry.Kind)
		}
		if entry.Interface == "" {
			return fmt.Errorf("%w: links[%d]", ErrEmptyInterface, i)
		}
	}
	return nil
}
