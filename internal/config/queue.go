package config

import (
	"errors"
	"time"
)

type QueueConfig struct {
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	URL            string        `mapstructure:"url"`
	QueueName      string        `mapstructure:"queue-name"`
	PublishTimeout time.Duration `mapstructure:"publish-timeout"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.User == "" {
		return errors.New("queue user is required")
	}
	if cfg.Password == "" {
		return errors.New("queue password is required")
	}
	if cfg.URL == "" {
		return errors.New("queue url is required")
	}
	if cfg.QueueName == "" {
		return errors.New("queue queue-name is required")
	}
	if cfg.PublishTimeout <= 0 {
		return errors.New("queue publish-timeout must be positive")
	}

	return nil
}
