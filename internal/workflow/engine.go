package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Step is the transition selected for a turn
type Step int

// Steps of the transition table
const (
	StepEntry Step = iota
	StepAdvance
	StepFinalize
	StepInvalid
)

func (s Step) String() string {
	switch s {
	case StepEntry:
		return "entry"
	case StepAdvance:
		return "advance"
	case StepFinalize:
		return "finalize"
	case StepInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// NextStep selects the transition for a persisted state.
//
//	nil or completed                          -> entry
//	index < 0, index > total, total != items  -> invalid
//	index < total                             -> advance
//	index == total                            -> finalize
func NextStep(s *State) Step {
	if s == nil || s.Completed {
		return StepEntry
	}
	if s.CurrentIndex < 0 || s.CurrentIndex > s.TotalCount || s.TotalCount != len(s.Items) {
		return StepInvalid
	}
	if s.CurrentIndex < s.TotalCount {
		return StepAdvance
	}
	return StepFinalize
}

// Engine runs turns of any registered workflow
type Engine struct {
	templates map[Kind]Template
	logger    *zap.Logger
	now       func() time.Time
}

// NewEngine creates an engine with the given templates
func NewEngine(logger *zap.Logger, templates ...Template) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		templates: make(map[Kind]Template, len(templates)),
		logger:    logger.Named("workflow"),
		now:       time.Now,
	}
	for _, t := range templates {
		e.Register(t)
	}
	return e
}

// Register adds or replaces the template for its kind
func (e *Engine) Register(t Template) {
	e.templates[t.Kind()] = t
}

// Template returns the template registered for kind
func (e *Engine) Template(kind Kind) (Template, bool) {
	t, ok := e.templates[kind]
	return t, ok
}

// Kinds lists registered kinds, sorted
func (e *Engine) Kinds() []Kind {
	kinds := make([]Kind, 0, len(e.templates))
	for k := range e.templates {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Run executes one turn. prev is never modified: the step works on a copy and
// the new state is returned only on success. A failing step yields a
// *StepError; a workflow that cannot start for lack of turn context yields a
// *MissingContextError.
func (e *Engine) Run(ctx context.Context, kind Kind, prev *State, in Input) (st *State, err error) {
	tmpl, ok := e.templates[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	step := NextStep(prev)
	invalid := ErrInvalidResumption
	if step != StepEntry && prev.Kind != kind {
		step = StepInvalid
	}
	if step == StepAdvance || step == StepFinalize {
		if v, ok := tmpl.(StateValidator); ok {
			if verr := v.ValidateState(prev); verr != nil {
				step = StepInvalid
				invalid = fmt.Errorf("%w: %v", ErrInvalidResumption, verr)
			}
		}
	}
	if step == StepInvalid {
		e.logger.Warn("discarding workflow state",
			zap.Error(invalid),
			zap.String("kind", string(kind)),
			zap.Int64("user_id", in.UserID),
			zap.Int("current_index", prev.CurrentIndex),
			zap.Int("total_count", prev.TotalCount),
			zap.Int("items", len(prev.Items)))
		prev = nil
		step = StepEntry
	}

	defer func() {
		if r := recover(); r != nil {
			st = nil
			err = &StepError{Kind: kind, Step: step.String(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, &StepError{Kind: kind, Step: step.String(), Err: err}
	}

	now := e.now()
	if step == StepEntry {
		st = &State{UserID: in.UserID, Kind: kind, StartedAt: now}
	} else {
		st = prev.Clone()
	}
	st.Messages = append(st.Messages, Message{Role: RoleUser, Content: in.Text, Workflow: kind})

	switch step {
	case StepEntry:
		if err := e.enter(ctx, tmpl, st, in); err != nil {
			return nil, err
		}
	case StepAdvance:
		e.advance(tmpl, st)
	}

	// Finalizing needs no user input, so it runs in the same turn that
	// answered the last item.
	if st.CurrentIndex == st.TotalCount && !st.Completed {
		e.finalize(tmpl, st)
	}
	st.UpdatedAt = now

	e.logger.Debug("workflow turn",
		zap.String("kind", string(kind)),
		zap.Int64("user_id", in.UserID),
		zap.String("step", step.String()),
		zap.String("current_step", st.CurrentStep),
		zap.Int("current_index", st.CurrentIndex),
		zap.Int("total_count", st.TotalCount),
		zap.Bool("completed", st.Completed))
	return st, nil
}

func (e *Engine) enter(ctx context.Context, tmpl Template, st *State, in Input) error {
	labels := tmpl.Labels()

	payload, err := tmpl.Build(ctx, in)
	if err != nil {
		var mce *MissingContextError
		if errors.As(err, &mce) {
			return mce
		}
		return &StepError{Kind: st.Kind, Step: labels.Entry, Err: err}
	}

	st.Items = cloneItems(payload.Items)
	st.Facts = payload.Facts
	st.TotalCount = len(st.Items)
	st.CurrentIndex = 0
	st.CurrentStep = labels.Entry
	st.JobPostingID = payload.JobPostingID

	if st.TotalCount > 0 {
		st.Messages = append(st.Messages, assistantMessage(st, tmpl.RenderEntry(st), labels.Entry, "item_prompt", 1))
	}
	return nil
}

func (e *Engine) advance(tmpl Template, st *State) {
	labels := tmpl.Labels()

	next := st.CurrentIndex + 1
	if next >= st.TotalCount {
		st.CurrentIndex = st.TotalCount
		return
	}

	content := tmpl.RenderPrompt(st, next)
	st.CurrentIndex = next
	st.CurrentStep = labels.Advance
	st.Messages = append(st.Messages, assistantMessage(st, content, labels.Advance, "item_prompt", next+1))
}

func (e *Engine) finalize(tmpl Template, st *State) {
	labels := tmpl.Labels()

	content := tmpl.RenderFinalize(st)
	if menu := tmpl.NextStepsMenu(); menu != "" {
		content += "\n\n" + menu
	}

	st.CurrentIndex = st.TotalCount
	st.Completed = true
	st.CurrentStep = StepComplete
	st.Messages = append(st.Messages, assistantMessage(st, content, labels.Finalize, "workflow_complete", st.TotalCount))
}

func assistantMessage(st *State, content, step, action string, itemNumber int) Message {
	return Message{
		Role:     RoleAssistant,
		Content:  content,
		Workflow: st.Kind,
		Metadata: map[string]any{
			"step":        step,
			"action":      action,
			"item_number": itemNumber,
			"total_items": st.TotalCount,
		},
	}
}
