package main

import (
	"context"
	"log"
	"os"

	"comfyui_batch/internal/batch"
	"comfyui_batch/internal/comfy"
	"comfyui_batch/internal/config"
	"comfyui_batch/internal/storage"
	"comfyui_batch/src"
	"comfyui_batch/src/logger"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file, if present
	_ = godotenv.Load()

	ctx := context.Background()

	envConfig, err := src.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading environment configuration: %v", err)
	}

	if err := logger.InitLogger(envConfig.Log); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}

	// Load configuration from config.yaml (or the path given as argument)
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	yamlConfig, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}

	client := comfy.NewClient(config.BuildClientConfig(yamlConfig, envConfig))

	workflow, err := comfy.LoadWorkflow(yamlConfig.Batch.WorkflowPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", yamlConfig.Batch.WorkflowPath).Msg("failed to load workflow")
	}
	logger.Info().Str("path", yamlConfig.Batch.WorkflowPath).Int("nodes", len(workflow)).Msg("workflow loaded")

	prompts, err := batch.LoadStoryPrompts(yamlConfig.Batch.StoriesDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", yamlConfig.Batch.StoriesDir).Msg("failed to load story prompts")
	}
	if len(prompts) == 0 {
		logger.Fatal().Str("dir", yamlConfig.Batch.StoriesDir).Msg("no story prompts found")
	}

	var ledger storage.RunLedger
	switch yamlConfig.Batch.Ledger {
	case "redis":
		redisLedger, err := storage.NewRedisLedger(ctx, yamlConfig.Batch.LedgerTTLSeconds)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect run ledger")
		}
		defer redisLedger.Close()
		ledger = redisLedger
	default:
		ledger = storage.NewMemoryLedger()
	}

	runner := batch.NewRunner(client, workflow, ledger, config.BuildBatchConfig(yamlConfig))
	if err := runner.Run(ctx, prompts); err != nil {
		logger.Fatal().Err(err).Msg("batch run aborted")
	}
}
