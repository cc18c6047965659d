package src

import (
	"fmt"

	"comfyui_batch/src/model"

	"github.com/kelseyhightower/envconfig"
)

// Config carries the environment-driven part of the configuration.
type Config struct {
	Log    model.LogConfig    `envconfig:""`
	Server model.ServerConfig `envconfig:""`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %v", err)
	}

	return &config, nil
}
