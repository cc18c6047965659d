package pkg

import (
	"strconv"
	"time"

	"github.com/bytedance/sonic"
)

// Core types for the ComfyUI batch client

// Workflow is an API-format ComfyUI graph: node id mapped to node
// configuration. The graph is treated as an opaque document except for
// targeted input patches, so nodes stay schemaless maps.
type Workflow map[string]map[string]any

// Clone returns a deep copy of the workflow so per-job patches never leak
// into the base graph.
func (w Workflow) Clone() Workflow {
	if w == nil {
		return nil
	}
	data, err := sonic.Marshal(w)
	if err != nil {
		// A workflow that came from JSON always marshals back.
		return Workflow{}
	}
	var clone Workflow
	if err := sonic.Unmarshal(data, &clone); err != nil {
		return Workflow{}
	}
	return clone
}

// Inputs returns the input map of the given node, or nil when the node is
// missing or carries no inputs object.
func (w Workflow) Inputs(nodeID string) map[string]any {
	node, ok := w[nodeID]
	if !ok {
		return nil
	}
	inputs, ok := node["inputs"].(map[string]any)
	if !ok {
		return nil
	}
	return inputs
}

// PromptRequest is the body of a workflow submission.
type PromptRequest struct {
	Prompt   Workflow `json:"prompt"`
	ClientID string   `json:"client_id"`
}

// QueueSnapshot holds one poll of the server queue: the prompt ids
// currently running and pending.
type QueueSnapshot struct {
	Running []string `json:"running"`
	Pending []string `json:"pending"`
}

// Contains reports whether the prompt id appears in either list.
func (q QueueSnapshot) Contains(promptID string) bool {
	for _, id := range q.Running {
		if id == promptID {
			return true
		}
	}
	for _, id := range q.Pending {
		if id == promptID {
			return true
		}
	}
	return false
}

// DecodeQueueEntries extracts prompt ids from a raw queue list. The server
// has shipped two encodings per entry: an object with a "prompt_id" key,
// or an array whose first element is the id. Entries in neither shape are
// dropped.
func DecodeQueueEntries(entries []any) []string {
	ids := []string{}
	for _, entry := range entries {
		switch e := entry.(type) {
		case map[string]any:
			if id := StringID(e["prompt_id"]); id != "" {
				ids = append(ids, id)
			}
		case []any:
			if len(e) > 0 {
				if id := StringID(e[0]); id != "" {
					ids = append(ids, id)
				}
			}
		}
	}
	return ids
}

// StringID coerces a decoded JSON value to a prompt id string. Returns ""
// for values that cannot carry an id.
func StringID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

// ImageRef describes one output file reported in a history record.
type ImageRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder,omitempty"`
	Type      string `json:"type,omitempty"`
}

// HistoryEntry is the server-retained record of one job: node id mapped to
// output kind ("images", ...) mapped to file descriptors.
type HistoryEntry struct {
	Outputs map[string]map[string][]ImageRef `json:"outputs"`
}

// Run ledger types

// Run statuses recorded by the batch driver.
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunRecord is the ledger entry for one submitted job.
type RunRecord struct {
	PromptID    string    `json:"prompt_id"`
	Prompt      string    `json:"prompt"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	OutputPaths []string  `json:"output_paths,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}
