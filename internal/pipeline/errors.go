package pipeline

import "fmt"

// PreconditionError means the pipeline was not started because its input was
// unusable, e.g. no notes were supplied.
type PreconditionError struct {
	Cause error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("invalid report request: %v", e.Cause)
}

func (e *PreconditionError) Unwrap() error {
	return e.Cause
}
