package report

import "fmt"

// InvalidStateError is returned when an operation is not allowed in the
// composer's current state.
type InvalidStateError struct {
	Op     string
	State  State
	Reason string
}

func (e *InvalidStateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("compose: %s in state %s: %s", e.Op, e.State, e.Reason)
	}
	return fmt.Sprintf("compose: %s not allowed in state %s", e.Op, e.State)
}

// WriteError wraps a failure to serialize or persist the document.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("compose: write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
