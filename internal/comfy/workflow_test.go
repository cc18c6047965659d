package comfy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workflowJSON = `{
	"32": {
		"class_type": "CLIPTextEncode",
		"inputs": {"text": "placeholder", "clip": ["4", 1]}
	},
	"9": {
		"class_type": "SaveImage",
		"inputs": {"filename_prefix": "story"}
	}
}`

func writeWorkflowFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflow.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadWorkflow(t *testing.T) {
	workflow, err := LoadWorkflow(writeWorkflowFile(t, workflowJSON))
	require.NoError(t, err)

	assert.Len(t, workflow, 2)
	assert.Equal(t, "placeholder", workflow.Inputs("32")["text"])
}

func TestLoadWorkflowMissingFile(t *testing.T) {
	_, err := LoadWorkflow(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorContains(t, err, "failed to read workflow file")
}

func TestLoadWorkflowMalformed(t *testing.T) {
	_, err := LoadWorkflow(writeWorkflowFile(t, "{not json"))
	assert.ErrorContains(t, err, "failed to parse workflow file")
}

func TestUpdateNodeInput(t *testing.T) {
	workflow, err := LoadWorkflow(writeWorkflowFile(t, workflowJSON))
	require.NoError(t, err)

	updated := UpdateNodeInput(workflow, "32", "text", "a quiet harbor")

	assert.Equal(t, "a quiet harbor", updated.Inputs("32")["text"])
	// Everything else stays untouched.
	assert.Equal(t, []any{"4", float64(1)}, updated.Inputs("32")["clip"])
	assert.Equal(t, "story", updated.Inputs("9")["filename_prefix"])
}

func TestUpdateNodeInputMissingNode(t *testing.T) {
	workflow, err := LoadWorkflow(writeWorkflowFile(t, workflowJSON))
	require.NoError(t, err)
	before := workflow.Clone()

	updated := UpdateNodeInput(workflow, "404", "text", "ignored")

	assert.Equal(t, before, updated)
}

func TestUpdateNodeInputMissingInput(t *testing.T) {
	workflow, err := LoadWorkflow(writeWorkflowFile(t, workflowJSON))
	require.NoError(t, err)
	before := workflow.Clone()

	updated := UpdateNodeInput(workflow, "32", "seed", 42)

	assert.Equal(t, before, updated)
}
