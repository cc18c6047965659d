package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"comfyui_batch/internal/comfy"
	"comfyui_batch/internal/storage"
	"comfyui_batch/pkg"
	"comfyui_batch/src/logger"
)

// DefaultCooldown spaces jobs out as a crude load-shedding measure
// against the remote server.
const DefaultCooldown = 2 * time.Second

// Config holds the batch driver settings.
type Config struct {
	// TargetNodeID and TargetInput name the one workflow field patched
	// with each prompt, e.g. node "32" input "text".
	TargetNodeID string
	TargetInput  string
	// OutputRoot is the directory under which per-job output directories
	// (story_1, story_2, ...) are created.
	OutputRoot string
	ClientID   string
	Cooldown   time.Duration
}

// Runner executes prompts against one server, strictly one job at a time:
// clone the base graph, patch it, submit, await, download, record.
type Runner struct {
	client *comfy.Client
	base   pkg.Workflow
	ledger storage.RunLedger
	config Config
}

// NewRunner creates a batch runner around a client and a base workflow.
// The base workflow is never mutated; each job patches its own clone.
func NewRunner(client *comfy.Client, base pkg.Workflow, ledger storage.RunLedger, config Config) *Runner {
	if config.Cooldown <= 0 {
		config.Cooldown = DefaultCooldown
	}

	return &Runner{
		client: client,
		base:   base,
		ledger: ledger,
		config: config,
	}
}

// Run works through the prompts sequentially. A failed submission aborts
// only its own job: the error is logged with its chain, recorded in the
// ledger, and the runner moves on to the next prompt. Run itself returns
// an error only when the context is cancelled.
func (r *Runner) Run(ctx context.Context, prompts []string) error {
	logger.Info().
		Int("jobs", len(prompts)).
		Str("server", r.client.BaseURL()).
		Msg("batch run starting")

	for i, prompt := range prompts {
		if err := ctx.Err(); err != nil {
			return err
		}

		record := r.runJob(ctx, i, prompt)
		if r.ledger != nil {
			if err := r.ledger.Record(ctx, record); err != nil {
				logger.Warn().
					Err(err).
					Str("prompt_id", record.PromptID).
					Msg("failed to record run in ledger")
			}
		}

		// Cooldown between jobs, not after the last one.
		if i < len(prompts)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.config.Cooldown):
			}
		}
	}

	logger.Info().Msg("batch run finished")
	return nil
}

// runJob executes one prompt end to end and returns its ledger record.
func (r *Runner) runJob(ctx context.Context, index int, prompt string) pkg.RunRecord {
	logger.Info().
		Int("job", index+1).
		Str("prompt", prompt).
		Msg("job starting")

	record := pkg.RunRecord{
		Prompt:    prompt,
		StartedAt: time.Now(),
	}

	workflow := r.base.Clone()
	comfy.UpdateNodeInput(workflow, r.config.TargetNodeID, r.config.TargetInput, prompt)

	promptID, err := r.client.SubmitWorkflow(ctx, workflow, r.config.ClientID)
	if err != nil {
		logger.Error().
			Err(err).
			Int("job", index+1).
			Msg("workflow submission failed")
		return r.fail(record, err)
	}
	record.PromptID = promptID

	if err := r.client.WaitForCompletion(ctx, promptID, 0); err != nil {
		// Only context cancellation gets here; queue errors retry inside.
		logger.Error().
			Err(err).
			Str("prompt_id", promptID).
			Msg("wait for completion aborted")
		return r.fail(record, err)
	}

	outputDir := filepath.Join(r.config.OutputRoot, fmt.Sprintf("story_%d", index+1))
	paths, err := r.client.DownloadImages(ctx, promptID, outputDir)
	if err != nil {
		logger.Error().
			Err(err).
			Str("prompt_id", promptID).
			Msg("image download failed")
		return r.fail(record, err)
	}

	record.OutputPaths = paths
	record.Status = pkg.RunStatusCompleted
	record.FinishedAt = time.Now()

	logger.Info().
		Int("job", index+1).
		Str("prompt_id", promptID).
		Int("images", len(paths)).
		Msg("job finished")

	return record
}

func (r *Runner) fail(record pkg.RunRecord, err error) pkg.RunRecord {
	record.Status = pkg.RunStatusFailed
	record.Error = err.Error()
	record.FinishedAt = time.Now()
	return record
}
