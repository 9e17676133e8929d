package style

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse reads a YAML configuration. Fields absent from data keep their
// default values.
func Parse(data []byte) (*AppConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing style config: %w", err)
	}
	cfg.repair()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// repair fills blocks older config files may lack.
func (c *AppConfig) repair() {
	def := Default()
	if c.NodeColors == (NodeColors{}) {
		c.NodeColors = def.NodeColors
	}
	if c.ActivePreset == "" {
		c.ActivePreset = def.ActivePreset
	}
	if len(c.RouteTypes) == 0 {
		c.RouteTypes = def.RouteTypes
	}
	if c.LegendStyle.Scale <= 0 {
		c.LegendStyle.Scale = def.LegendStyle.Scale
	}
}

// Load reads a YAML configuration file. An empty path returns the defaults.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading style config: %w", err)
	}
	return Parse(data)
}

// Marshal encodes the configuration as YAML.
func Marshal(c *AppConfig) ([]byte, error) {
	return yaml.Marshal(c)
}

// Save writes the configuration to a YAML file.
func Save(path string, c *AppConfig) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing style config: %w", err)
	}
	return nil
}
