// Package config also provides Viper-based hierarchical configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Database struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"database" yaml:"database"`

	Import struct {
		// PreviewRows bounds the interactive preview slice.
		PreviewRows int `mapstructure:"preview_rows" yaml:"preview_rows"`
		// Tolerance absorbs rounding when validating that apportioned
		// sub-amounts fit inside the payment total. Tunable constant, kept
		// at 0.01 for behavioral compatibility with historical imports.
		Tolerance string `mapstructure:"tolerance" yaml:"tolerance"`
		// YearPivot decides the century for two-digit years: above the pivot
		// means 19xx, otherwise 20xx. Tunable, historically 50.
		YearPivot int `mapstructure:"year_pivot" yaml:"year_pivot"`
		// TypeFallback is used when the source file carries no payment type.
		// "by-recipient" assumes expense when a recipient is present and
		// income otherwise; "income" and "expense" force a fixed value.
		// This is a heuristic, not a business rule.
		TypeFallback string `mapstructure:"type_fallback" yaml:"type_fallback"`
	} `mapstructure:"import" yaml:"import"`
}

// InitializeConfig loads configuration with the usual precedence: defaults,
// then an optional config file, then FINAUDIT_* environment variables.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.finaudit")
	v.AddConfigPath(".finaudit")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FINAUDIT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			Logger.Warnf("Error reading config file %s: %v", v.ConfigFileUsed(), err)
		}
		// Missing config file is fine, defaults and env vars apply.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.path", "finaudit.db")

	v.SetDefault("import.preview_rows", 30)
	v.SetDefault("import.tolerance", "0.01")
	v.SetDefault("import.year_pivot", 50)
	v.SetDefault("import.type_fallback", "by-recipient")
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Import.PreviewRows <= 0 {
		return fmt.Errorf("invalid preview row count: %d", config.Import.PreviewRows)
	}

	switch config.Import.TypeFallback {
	case "by-recipient", "income", "expense":
	default:
		return fmt.Errorf("invalid type fallback: %s", config.Import.TypeFallback)
	}

	return nil
}
