package neoreel

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

// DefaultDir is where buffers are written and looked up unless configured
// otherwise.
const DefaultDir = "src/animations"

// Config is shared by both commands.
type Config struct {
	Dir  string `yaml:"dir"  env:"NEOREEL_DIR"`
	Rate int    `yaml:"rate" env:"NEOREEL_RATE"`
}

func DefaultConfig() Config {
	return Config{
		Dir:  DefaultDir,
		Rate: DefaultRate,
	}
}

// LoadConfig starts from DefaultConfig, applies the YAML file at path if
// path is not empty, then the NEOREEL_* environment variables.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("config environment: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Dir == "" {
		return errors.New("config: dir must not be empty")
	}
	if c.Rate <= 0 {
		return fmt.Errorf("config: rate must be positive, got %d", c.Rate)
	}
	return nil
}
