package llm

import "fmt"

// APICallError represents a failed provider call
type APICallError struct {
	Model string
	Cause error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model %s call failed: %v", e.Model, e.Cause)
	}
	return fmt.Sprintf("model %s call failed", e.Model)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}
