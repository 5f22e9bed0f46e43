package workflow

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/career-assistant/internal/usercontext"
)

// Input is what a single turn hands to the engine
type Input struct {
	UserID  int64
	Text    string
	Context map[string]any
	User    *usercontext.UserContext
}

// StepLabels names the entry, advance and finalize steps of a workflow.
// The names surface as CurrentStep and in message metadata.
type StepLabels struct {
	Entry    string
	Advance  string
	Finalize string
}

// Payload is what a template's entry step produces
type Payload struct {
	Items        []Item
	Facts        map[string]string
	JobPostingID *int64
}

// Template supplies the content of one workflow. The engine owns sequencing;
// a template only builds items and renders messages.
type Template interface {
	Kind() Kind
	Labels() StepLabels
	// Build produces the items and facts for a new run
	Build(ctx context.Context, in Input) (Payload, error)
	// RenderEntry presents item 1 of N. Not called when N == 0.
	RenderEntry(st *State) string
	// RenderPrompt acknowledges item next-1 and presents item next
	RenderPrompt(st *State, next int) string
	// RenderFinalize acknowledges the last item (if any) and summarizes the run
	RenderFinalize(st *State) string
	// NextStepsMenu is appended to the final message; may be empty
	NextStepsMenu() string
}

// StateValidator is implemented by templates whose persisted state needs more
// than the index checks of NextStep before it can be resumed. A non-nil error
// discards the state and the workflow restarts from entry.
type StateValidator interface {
	ValidateState(st *State) error
}

// JobPostingIDFrom extracts job_posting_id from turn context. JSON numbers,
// Go integers and numeric strings are accepted; anything else, including
// non-positive and fractional values, is rejected.
func JobPostingIDFrom(ctx map[string]any) (int64, bool) {
	raw, ok := ctx["job_posting_id"]
	if !ok || raw == nil {
		return 0, false
	}

	var id int64
	switch v := raw.(type) {
	case int:
		id = int64(v)
	case int32:
		id = int64(v)
	case int64:
		id = v
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 {
			return 0, false
		}
		id = int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		id = n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		id = n
	default:
		return 0, false
	}

	if id <= 0 {
		return 0, false
	}
	return id, true
}
