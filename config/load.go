package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads an optional YAML config file plus KAYROS_-prefixed environment
// variables and overlays them onto Default(), the way z5labs/bedrock layers
// viper sources on top of a base configuration. A missing path is not an
// error: Load simply returns Default().
func Load(path string) (*Config, error) {
	base := Default()
	if path == "" {
		return base, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("KAYROS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := *base
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}

	filled := Fill(cfg)
	return &filled, nil
}
