package config

import (
	"fmt"
	"os"
	"time"

	"comfyui_batch/internal/batch"
	"comfyui_batch/internal/comfy"
	"comfyui_batch/src"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of config.yaml
type YAMLConfig struct {
	Server struct {
		BaseURL             string  `yaml:"base_url"`
		ClientID            string  `yaml:"client_id"`
		PollIntervalSeconds float64 `yaml:"poll_interval_seconds"`
	} `yaml:"server"`
	Batch struct {
		WorkflowPath     string  `yaml:"workflow_path"`
		StoriesDir       string  `yaml:"stories_dir"`
		OutputRoot       string  `yaml:"output_root"`
		TargetNodeID     string  `yaml:"target_node_id"`
		TargetInput      string  `yaml:"target_input"`
		CooldownSeconds  float64 `yaml:"cooldown_seconds"`
		Ledger           string  `yaml:"ledger"`
		LedgerTTLSeconds int     `yaml:"ledger_ttl_seconds"`
	} `yaml:"batch"`
}

// LoadConfig loads configuration from config.yaml
func LoadConfig(filepath string) (*YAMLConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config YAMLConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("error parsing YAML: %v", err)
	}

	return &config, nil
}

// BuildClientConfig merges config.yaml and environment settings into the
// client configuration. Environment wins for the server address.
func BuildClientConfig(yamlConfig *YAMLConfig, envConfig *src.Config) comfy.ClientConfig {
	baseURL := yamlConfig.Server.BaseURL
	if envConfig != nil && envConfig.Server.BaseURL != "" {
		baseURL = envConfig.Server.BaseURL
	}

	return comfy.ClientConfig{
		BaseURL:      baseURL,
		PollInterval: secondsToDuration(yamlConfig.Server.PollIntervalSeconds, comfy.DefaultPollInterval),
	}
}

// BuildBatchConfig creates the batch driver configuration, generating a
// client id when config.yaml leaves it empty.
func BuildBatchConfig(yamlConfig *YAMLConfig) batch.Config {
	clientID := yamlConfig.Server.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	return batch.Config{
		TargetNodeID: yamlConfig.Batch.TargetNodeID,
		TargetInput:  yamlConfig.Batch.TargetInput,
		OutputRoot:   yamlConfig.Batch.OutputRoot,
		ClientID:     clientID,
		Cooldown:     secondsToDuration(yamlConfig.Batch.CooldownSeconds, batch.DefaultCooldown),
	}
}

func secondsToDuration(seconds float64, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds * float64(time.Second))
}
