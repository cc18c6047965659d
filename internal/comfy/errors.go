package comfy

import (
	"errors"
	"fmt"
)

// ErrMissingPromptID means the submit response carried no recognizable
// prompt id in any of its known shapes.
var ErrMissingPromptID = errors.New("no prompt id in submit response")

// SubmitError is returned when the server rejects a workflow submission.
type SubmitError struct {
	StatusCode int
	Body       string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("workflow submission failed: status %d: %s", e.StatusCode, e.Body)
}
