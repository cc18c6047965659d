package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"comfyui_batch/internal/batch"
	"comfyui_batch/internal/comfy"
	"comfyui_batch/src"
	"comfyui_batch/src/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  base_url: "http://10.0.0.5:8188"
  client_id: "batch-runner"
  poll_interval_seconds: 0.5
batch:
  workflow_path: "FluxAPI.json"
  stories_dir: "stories"
  output_root: "output"
  target_node_id: "32"
  target_input: "text"
  cooldown_seconds: 3.0
  ledger: "memory"
`

func loadSample(t *testing.T) *YAMLConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))

	yamlConfig, err := LoadConfig(path)
	require.NoError(t, err)
	return yamlConfig
}

func TestLoadConfig(t *testing.T) {
	yamlConfig := loadSample(t)

	assert.Equal(t, "http://10.0.0.5:8188", yamlConfig.Server.BaseURL)
	assert.Equal(t, "32", yamlConfig.Batch.TargetNodeID)
	assert.Equal(t, 3.0, yamlConfig.Batch.CooldownSeconds)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "error reading config file")
}

func TestBuildClientConfig(t *testing.T) {
	yamlConfig := loadSample(t)

	clientConfig := BuildClientConfig(yamlConfig, nil)
	assert.Equal(t, "http://10.0.0.5:8188", clientConfig.BaseURL)
	assert.Equal(t, 500*time.Millisecond, clientConfig.PollInterval)
}

func TestBuildClientConfigEnvOverride(t *testing.T) {
	yamlConfig := loadSample(t)
	envConfig := &src.Config{
		Server: model.ServerConfig{BaseURL: "http://192.168.1.9:8188"},
	}

	clientConfig := BuildClientConfig(yamlConfig, envConfig)
	assert.Equal(t, "http://192.168.1.9:8188", clientConfig.BaseURL)
}

func TestBuildClientConfigDefaults(t *testing.T) {
	clientConfig := BuildClientConfig(&YAMLConfig{}, nil)
	assert.Equal(t, comfy.DefaultPollInterval, clientConfig.PollInterval)
}

func TestBuildBatchConfig(t *testing.T) {
	yamlConfig := loadSample(t)

	batchConfig := BuildBatchConfig(yamlConfig)
	assert.Equal(t, "batch-runner", batchConfig.ClientID)
	assert.Equal(t, "32", batchConfig.TargetNodeID)
	assert.Equal(t, "text", batchConfig.TargetInput)
	assert.Equal(t, 3*time.Second, batchConfig.Cooldown)
}

func TestBuildBatchConfigGeneratesClientID(t *testing.T) {
	batchConfig := BuildBatchConfig(&YAMLConfig{})
	assert.NotEmpty(t, batchConfig.ClientID)
	assert.Equal(t, batch.DefaultCooldown, batchConfig.Cooldown)
}
