package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned for a kind with no registered template
	ErrUnknownKind = errors.New("unknown workflow kind")
	// ErrInvalidResumption marks a persisted state that violates the index invariants
	ErrInvalidResumption = errors.New("invalid workflow state for resumption")
)

// StepError wraps a failure inside a workflow step. The state passed to the
// engine is left untouched when a step fails.
type StepError struct {
	Kind Kind
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("workflow %s step %s failed: %v", e.Kind, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// MissingContextError reports that a workflow cannot start without a piece of
// turn context. Message is safe to show to the user.
type MissingContextError struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("workflow %s requires %s", e.Kind, e.Field)
}
