package comfy

import (
	"fmt"
	"os"

	"comfyui_batch/pkg"
	"comfyui_batch/src/logger"

	"github.com/bytedance/sonic"
)

// LoadWorkflow reads an API-format workflow graph from a JSON file.
func LoadWorkflow(path string) (pkg.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	var workflow pkg.Workflow
	if err := sonic.Unmarshal(data, &workflow); err != nil {
		return nil, fmt.Errorf("failed to parse workflow file '%s': %w", path, err)
	}

	return workflow, nil
}

// UpdateNodeInput overwrites one input value of one node, in place. A
// missing node or missing input is a warning, not an error: a bad patch
// target must not abort a batch run. The workflow is returned either way.
func UpdateNodeInput(workflow pkg.Workflow, nodeID, inputName string, value any) pkg.Workflow {
	if _, ok := workflow[nodeID]; !ok {
		logger.Warn().
			Str("node_id", nodeID).
			Msg("node not found in workflow, leaving graph unchanged")
		return workflow
	}

	inputs := workflow.Inputs(nodeID)
	if inputs == nil {
		logger.Warn().
			Str("node_id", nodeID).
			Msg("node has no inputs object, leaving graph unchanged")
		return workflow
	}

	if _, ok := inputs[inputName]; !ok {
		logger.Warn().
			Str("node_id", nodeID).
			Str("input", inputName).
			Msg("input not found on node, leaving graph unchanged")
		return workflow
	}

	inputs[inputName] = value
	logger.Debug().
		Str("node_id", nodeID).
		Str("input", inputName).
		Msg("node input updated")

	return workflow
}
