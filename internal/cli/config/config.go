// Package config loads the schemaforge project configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the schemaforge project configuration, read from
// schemaforge.yml with environment variable overrides.
type Config struct {
	ModuleName string       `mapstructure:"module_name"`
	Schema     SchemaConfig `mapstructure:"schema"`
	Output     OutputConfig `mapstructure:"output"`
}

// SchemaConfig locates the schema documents.
type SchemaConfig struct {
	Dir string `mapstructure:"dir"`
}

// OutputConfig locates the generated source tree.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads schemaforge.yml (or .yaml) from the working directory. A
// missing config file is not an error; defaults apply.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("module_name", "example.com/app")
	v.SetDefault("schema.dir", "schemas")
	v.SetDefault("output.dir", "gen")

	v.SetConfigName("schemaforge")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.ModuleName == "" {
		return fmt.Errorf("module_name cannot be empty")
	}
	if cfg.Schema.Dir == "" {
		return fmt.Errorf("schema.dir cannot be empty")
	}
	if cfg.Output.Dir == "" {
		return fmt.Errorf("output.dir cannot be empty")
	}
	return nil
}
