package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	// ErrSchedulerNotFound indicates the sbatch binary was not found
	ErrSchedulerNotFound = errors.New("sbatch binary not found in PATH")

	// ErrInsideJob indicates we're already inside a scheduler job
	ErrInsideJob = errors.New("already inside a scheduler job")

	// ErrJobIDParseFailed indicates parsing the job ID from sbatch output failed
	ErrJobIDParseFailed = errors.New("failed to parse job ID from sbatch output")
)

// SubmissionError represents a failed sbatch invocation, with the captured
// output for diagnosis.
type SubmissionError struct {
	Script string
	Output string
	Err    error
}

func (e *SubmissionError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out != "" {
		return fmt.Sprintf("sbatch failed for %s: %v\n%s", e.Script, e.Err, out)
	}
	return fmt.Sprintf("sbatch failed for %s: %v", e.Script, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
