package comfy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"comfyui_batch/pkg"
	"comfyui_batch/src/logger"

	"github.com/bytedance/sonic"
)

// DefaultBaseURL is the stock ComfyUI listen address.
const DefaultBaseURL = "http://127.0.0.1:8188"

// DefaultPollInterval is the queue polling cadence when none is configured.
const DefaultPollInterval = time.Second

// ClientConfig holds the connection settings for one ComfyUI server.
type ClientConfig struct {
	BaseURL      string
	PollInterval time.Duration
}

// Client drives a ComfyUI server over its HTTP API: submit a workflow,
// poll the queue until the job drains, then download the outputs it left
// in history. One job at a time; no auth, no retries beyond the poll loop.
type Client struct {
	config ClientConfig
	http   *http.Client
}

// NewClient creates a ComfyUI API client.
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	return &Client{
		config: config,
		http:   &http.Client{},
	}
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// SubmitWorkflow sends the workflow for execution and returns the prompt
// id the server assigned. A non-2xx response is a *SubmitError; a 2xx
// response with no extractable id is ErrMissingPromptID.
func (c *Client) SubmitWorkflow(ctx context.Context, workflow pkg.Workflow, clientID string) (string, error) {
	body, err := sonic.Marshal(pkg.PromptRequest{Prompt: workflow, ClientID: clientID})
	if err != nil {
		return "", fmt.Errorf("failed to marshal prompt request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit workflow: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read submit response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &SubmitError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	promptID := extractPromptID(raw)
	if promptID == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingPromptID, raw)
	}

	logger.Info().
		Str("prompt_id", promptID).
		Msg("workflow submitted")

	return promptID, nil
}

// extractPromptID pulls the prompt id out of a submit response. The
// response schema has varied across server versions, so a small ordered
// set of strategies is tried: a "prompt_id" field, an "id" field, then the
// first element of a bare list. First non-empty match wins.
func extractPromptID(raw []byte) string {
	var obj map[string]any
	if err := sonic.Unmarshal(raw, &obj); err == nil {
		if id := pkg.StringID(obj["prompt_id"]); id != "" {
			return id
		}
		if id := pkg.StringID(obj["id"]); id != "" {
			return id
		}
		return ""
	}

	var list []any
	if err := sonic.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return pkg.StringID(list[0])
	}

	return ""
}

// WaitForCompletion blocks until the prompt id has left both queue lists
// and the running list is empty. A failed poll is transient: it is logged
// and retried at the same interval, indefinitely. There is no timeout by
// default; callers wanting one pass a context with a deadline. A
// non-positive interval falls back to the configured poll interval.
func (c *Client) WaitForCompletion(ctx context.Context, promptID string, interval time.Duration) error {
	if interval <= 0 {
		interval = c.config.PollInterval
	}

	logger.Info().
		Str("prompt_id", promptID).
		Msg("waiting for workflow completion")

	for {
		snapshot, err := c.fetchQueue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn().
				Err(err).
				Str("prompt_id", promptID).
				Msg("queue poll failed, retrying")
		} else {
			logger.Debug().
				Strs("running", snapshot.Running).
				Strs("pending", snapshot.Pending).
				Msg("queue snapshot")

			if !snapshot.Contains(promptID) && len(snapshot.Running) == 0 {
				logger.Info().
					Str("prompt_id", promptID).
					Msg("workflow completed")
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// fetchQueue retrieves one queue snapshot.
func (c *Client) fetchQueue(ctx context.Context) (pkg.QueueSnapshot, error) {
	raw, status, err := c.get(ctx, c.config.BaseURL+"/queue")
	if err != nil {
		return pkg.QueueSnapshot{}, err
	}
	if status < 200 || status >= 300 {
		return pkg.QueueSnapshot{}, fmt.Errorf("queue status request failed: status %d", status)
	}

	var queue struct {
		Running []any `json:"queue_running"`
		Pending []any `json:"queue_pending"`
	}
	if err := sonic.Unmarshal(raw, &queue); err != nil {
		return pkg.QueueSnapshot{}, fmt.Errorf("failed to parse queue response: %w", err)
	}

	return pkg.QueueSnapshot{
		Running: pkg.DecodeQueueEntries(queue.Running),
		Pending: pkg.DecodeQueueEntries(queue.Pending),
	}, nil
}

// GetHistory fetches the full history collection and looks up one prompt
// id. An absent id is an expected transient state ("no history yet") and
// yields an empty entry, not an error.
func (c *Client) GetHistory(ctx context.Context, promptID string) (pkg.HistoryEntry, error) {
	raw, status, err := c.get(ctx, c.config.BaseURL+"/history")
	if err != nil {
		return pkg.HistoryEntry{}, err
	}
	if status < 200 || status >= 300 {
		return pkg.HistoryEntry{}, fmt.Errorf("history request failed: status %d", status)
	}

	var history map[string]pkg.HistoryEntry
	if err := sonic.Unmarshal(raw, &history); err != nil {
		return pkg.HistoryEntry{}, fmt.Errorf("failed to parse history response: %w", err)
	}

	entry, ok := history[promptID]
	if !ok {
		logger.Warn().
			Str("prompt_id", promptID).
			Msg("no history for prompt")
		return pkg.HistoryEntry{}, nil
	}

	return entry, nil
}

// DownloadImages fetches every "images" output of the job into outputDir
// and returns the local paths written, in encounter order. Node order is
// map order and deliberately unspecified. A failed download is logged and
// skipped; it never aborts the remaining files.
func (c *Client) DownloadImages(ctx context.Context, promptID, outputDir string) ([]string, error) {
	entry, err := c.GetHistory(ctx, promptID)
	if err != nil {
		return nil, err
	}

	if len(entry.Outputs) == 0 {
		logger.Warn().
			Str("prompt_id", promptID).
			Msg("no outputs for prompt")
		return []string{}, nil
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	downloaded := []string{}
	for nodeID, nodeOutput := range entry.Outputs {
		for kind, refs := range nodeOutput {
			if kind != "images" {
				continue
			}
			for _, ref := range refs {
				if ref.Filename == "" {
					continue
				}

				localPath := filepath.Join(outputDir, filepath.Base(ref.Filename))
				if err := c.downloadFile(ctx, ref.Filename, localPath); err != nil {
					logger.Warn().
						Err(err).
						Str("node_id", nodeID).
						Str("filename", ref.Filename).
						Msg("image download failed, skipping")
					continue
				}

				logger.Info().
					Str("path", localPath).
					Msg("image downloaded")
				downloaded = append(downloaded, localPath)
			}
		}
	}

	return downloaded, nil
}

// downloadFile GETs one file from the view endpoint and writes it locally.
func (c *Client) downloadFile(ctx context.Context, filename, localPath string) error {
	viewURL := c.config.BaseURL + "/view?filename=" + url.QueryEscape(filename)
	raw, status, err := c.get(ctx, viewURL)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("view request failed: status %d", status)
	}

	if err := os.WriteFile(localPath, raw, 0644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	return nil
}

// get issues one GET and returns the body and status code.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	return raw, resp.StatusCode, nil
}
