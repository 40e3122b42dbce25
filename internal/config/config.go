package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Export struct {
	Title string `yaml:"title"` // TITLE written into exported .cube files
	Size  int    `yaml:"size"`  // synthesis resolution, e.g. 33
}

type Config struct {
	Addr      string  `yaml:"addr"`      // HTTP listen address, e.g. :8080
	Intensity float64 `yaml:"intensity"` // default blend intensity 0..1
	Workers   int     `yaml:"workers"`   // apply worker count; 0 = NumCPU

	Export Export `yaml:"export,omitempty"`
}

// Default returns the built-in configuration; flags and config.yaml
// override it field by field.
func Default() *Config {
	return &Config{
		Addr:      ":8080",
		Intensity: 1.0,
		Export:    Export{Title: "lutforge", Size: 33},
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
