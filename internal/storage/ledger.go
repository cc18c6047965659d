package storage

import (
	"context"
	"fmt"

	"comfyui_batch/pkg"
)

// RunLedger records the outcome of each submitted job so a batch run
// leaves an inspectable trail.
type RunLedger interface {
	Record(ctx context.Context, record pkg.RunRecord) error
	Get(ctx context.Context, promptID string) (*pkg.RunRecord, error)
}

// MemoryLedger is the in-process default. The batch driver is strictly
// sequential, so no locking is needed.
type MemoryLedger struct {
	records map[string]pkg.RunRecord
}

// NewMemoryLedger creates a new in-memory run ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		records: make(map[string]pkg.RunRecord),
	}
}

// Record stores or overwrites the record for its prompt id. Records of
// failed submissions carry no prompt id and are kept under the prompt
// text instead.
func (m *MemoryLedger) Record(ctx context.Context, record pkg.RunRecord) error {
	m.records[ledgerKey(record)] = record
	return nil
}

// Get retrieves a record by prompt id.
func (m *MemoryLedger) Get(ctx context.Context, promptID string) (*pkg.RunRecord, error) {
	record, ok := m.records[promptID]
	if !ok {
		return nil, fmt.Errorf("run record not found for prompt: %s", promptID)
	}
	return &record, nil
}

func ledgerKey(record pkg.RunRecord) string {
	if record.PromptID != "" {
		return record.PromptID
	}
	return record.Prompt
}
