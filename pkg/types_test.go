package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWorkflow() Workflow {
	return Workflow{
		"32": {
			"class_type": "CLIPTextEncode",
			"inputs": map[string]any{
				"text": "a quiet harbor",
				"clip": []any{"4", float64(1)},
			},
		},
		"9": {
			"class_type": "SaveImage",
			"inputs": map[string]any{
				"filename_prefix": "story",
			},
		},
	}
}

func TestWorkflowClone(t *testing.T) {
	base := testWorkflow()
	clone := base.Clone()

	require.NotNil(t, clone)
	assert.Equal(t, base, clone)

	clone.Inputs("32")["text"] = "a stormy coast"

	assert.Equal(t, "a quiet harbor", base.Inputs("32")["text"])
	assert.Equal(t, "a stormy coast", clone.Inputs("32")["text"])
}

func TestWorkflowCloneNil(t *testing.T) {
	var wf Workflow
	assert.Nil(t, wf.Clone())
}

func TestWorkflowInputs(t *testing.T) {
	wf := testWorkflow()

	assert.NotNil(t, wf.Inputs("32"))
	assert.Nil(t, wf.Inputs("404"))

	wf["99"] = map[string]any{"class_type": "Note"}
	assert.Nil(t, wf.Inputs("99"))
}

func TestDecodeQueueEntries(t *testing.T) {
	entries := []any{
		map[string]any{"prompt_id": "job1"},
		[]any{"job2", float64(7)},
		map[string]any{"other": "job3"},
		[]any{},
		"junk",
	}

	assert.Equal(t, []string{"job1", "job2"}, DecodeQueueEntries(entries))
	assert.Empty(t, DecodeQueueEntries(nil))
}

func TestStringID(t *testing.T) {
	assert.Equal(t, "abc", StringID("abc"))
	assert.Equal(t, "42", StringID(float64(42)))
	assert.Equal(t, "", StringID(nil))
	assert.Equal(t, "", StringID(map[string]any{}))
}

func TestQueueSnapshotContains(t *testing.T) {
	snapshot := QueueSnapshot{
		Running: []string{"job1"},
		Pending: []string{"job2"},
	}

	assert.True(t, snapshot.Contains("job1"))
	assert.True(t, snapshot.Contains("job2"))
	assert.False(t, snapshot.Contains("job3"))
}
