package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Db      DbConfig      `mapstructure:"db-config"`
	Api     ApiConfig     `mapstructure:"api-config"`
	Engine  EngineConfig  `mapstructure:"engine-config"`
	Queue   QueueConfig   `mapstructure:"queue-config"`
	Metrics MetricsConfig `mapstructure:"metrics-config"`
}

func (cfg *Config) Validate() error {
	if err := cfg.Db.Validate(); err != nil {
		return err
	}
	if err := cfg.Api.Validate(); err != nil {
		return err
	}
	if err := cfg.Engine.Validate(); err != nil {
		return err
	}
	if err := cfg.Queue.Validate(); err != nil {
		return err
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return err
	}
	return nil
}

// New returns a fully parsed and validated Config from the YAML file at
// cfgPath. Every key can be overridden through the environment with the
// VAULT_ENGINE prefix, dots and dashes replaced by underscores.
func New(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)
	viper.SetEnvPrefix("VAULT_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cfgPath, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
