package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"
)

// countingTemplate produces n numbered items and records render calls
type countingTemplate struct {
	kind     Kind
	n        int
	buildErr error
	panicOn  string
}

func (t *countingTemplate) Kind() Kind { return t.kind }

func (t *countingTemplate) Labels() StepLabels {
	return StepLabels{Entry: "start", Advance: "next", Finalize: "wrap_up"}
}

func (t *countingTemplate) Build(_ context.Context, _ Input) (Payload, error) {
	if t.buildErr != nil {
		return Payload{}, t.buildErr
	}
	items := make([]Item, t.n)
	for i := range items {
		items[i] = Item{Title: fmt.Sprintf("item-%d", i+1), Suggestions: []string{"s"}}
	}
	return Payload{Items: items, Facts: map[string]string{"k": "v"}}, nil
}

func (t *countingTemplate) RenderEntry(st *State) string {
	return fmt.Sprintf("entry %d/%d", 1, st.TotalCount)
}

func (t *countingTemplate) RenderPrompt(st *State, next int) string {
	if t.panicOn == "prompt" {
		panic("render exploded")
	}
	return fmt.Sprintf("ack %d/%d then %d/%d", next, st.TotalCount, next+1, st.TotalCount)
}

func (t *countingTemplate) RenderFinalize(st *State) string {
	return fmt.Sprintf("done %d", st.TotalCount)
}

func (t *countingTemplate) NextStepsMenu() string { return "menu" }

func newTestEngine(templates ...Template) *Engine {
	return NewEngine(zap.NewNop(), templates...)
}

func TestNextStep(t *testing.T) {
	items := func(n int) []Item { return make([]Item, n) }

	tests := []struct {
		name  string
		state *State
		want  Step
	}{
		{"nil state", nil, StepEntry},
		{"completed", &State{Completed: true, CurrentIndex: 3, TotalCount: 3, Items: items(3)}, StepEntry},
		{"first item pending", &State{CurrentIndex: 0, TotalCount: 3, Items: items(3)}, StepAdvance},
		{"last item pending", &State{CurrentIndex: 2, TotalCount: 3, Items: items(3)}, StepAdvance},
		{"ready to finalize", &State{CurrentIndex: 3, TotalCount: 3, Items: items(3)}, StepFinalize},
		{"zero items ready", &State{CurrentIndex: 0, TotalCount: 0}, StepFinalize},
		{"index past total", &State{CurrentIndex: 4, TotalCount: 3, Items: items(3)}, StepInvalid},
		{"negative index", &State{CurrentIndex: -1, TotalCount: 3, Items: items(3)}, StepInvalid},
		{"total mismatch", &State{CurrentIndex: 0, TotalCount: 3, Items: items(2)}, StepInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStep(tt.state))
		})
	}
}

func TestEngine_ProfileGapWalkthrough(t *testing.T) {
	engine := newTestEngine(NewProfileGapTemplate(DemoSource{}))
	ctx := context.Background()

	st, err := engine.Run(ctx, KindGapProfile, nil, Input{UserID: 1, Text: "what skills am I missing?"})
	require.NoError(t, err)
	msg, _ := st.LastAssistantMessage()
	assert.Contains(t, msg.Content, "Gap 1/3: Cloud Technologies")
	assert.Equal(t, "identify_gaps", st.CurrentStep)
	assert.Equal(t, 0, st.CurrentIndex)
	assert.False(t, st.Completed)

	st, err = engine.Run(ctx, KindGapProfile, st, Input{UserID: 1, Text: "I'll get certified"})
	require.NoError(t, err)
	msg, _ = st.LastAssistantMessage()
	assert.Contains(t, msg.Content, "Gap 1/3 - Plan Set!")
	assert.Contains(t, msg.Content, "Gap 2/3: Leadership Experience")
	assert.Equal(t, "show_next_gap", st.CurrentStep)
	assert.Equal(t, 1, st.CurrentIndex)

	st, err = engine.Run(ctx, KindGapProfile, st, Input{UserID: 1, Text: "lead a project"})
	require.NoError(t, err)
	msg, _ = st.LastAssistantMessage()
	assert.Contains(t, msg.Content, "Gap 2/3 - Plan Set!")
	assert.Contains(t, msg.Content, "Gap 3/3: System Design")
	assert.False(t, st.Completed)

	st, err = engine.Run(ctx, KindGapProfile, st, Input{UserID: 1, Text: "read a book"})
	require.NoError(t, err)
	msg, _ = st.LastAssistantMessage()
	assert.Contains(t, msg.Content, "Gap 3/3 - Plan Set!")
	assert.Contains(t, msg.Content, "Profile Gap Analysis Complete!")
	assert.Contains(t, msg.Content, "What would you like to do next?")
	assert.True(t, st.Completed)
	assert.Equal(t, StepComplete, st.CurrentStep)
	assert.Equal(t, 3, st.CurrentIndex)
	assert.Equal(t, "complete_analysis", msg.Metadata["step"])

	assistant := 0
	for _, m := range st.Messages {
		if m.Role == RoleAssistant {
			assistant++
			assert.Equal(t, KindGapProfile, m.Workflow)
		}
	}
	assert.Equal(t, 4, assistant)
	assert.Len(t, st.Messages, 8)
}

func TestEngine_ZeroItemsCompletesInOneTurn(t *testing.T) {
	engine := newTestEngine(NewProfileAnalysisTemplate())

	st, err := engine.Run(context.Background(), KindProfileAnalysis, nil, Input{UserID: 3, Text: "tell me about my profile"})
	require.NoError(t, err)
	assert.True(t, st.Completed)
	assert.Equal(t, StepComplete, st.CurrentStep)
	require.Len(t, st.Messages, 2)
	assert.Contains(t, st.Messages[1].Content, "Key Strengths")
}

func TestEngine_DoesNotMutateInput(t *testing.T) {
	engine := newTestEngine(&countingTemplate{kind: KindGapProfile, n: 3})
	ctx := context.Background()

	first, err := engine.Run(ctx, KindGapProfile, nil, Input{UserID: 1, Text: "go"})
	require.NoError(t, err)
	snapshot := first.Clone()

	_, err = engine.Run(ctx, KindGapProfile, first, Input{UserID: 1, Text: "next"})
	require.NoError(t, err)
	assert.Equal(t, snapshot, first)
}

func TestEngine_StepFailure(t *testing.T) {
	boom := errors.New("source down")
	engine := newTestEngine(&countingTemplate{kind: KindGapProfile, buildErr: boom})

	st, err := engine.Run(context.Background(), KindGapProfile, nil, Input{UserID: 1, Text: "go"})
	assert.Nil(t, st)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "start", stepErr.Step)
	assert.ErrorIs(t, err, boom)
}

func TestEngine_PanicBecomesStepError(t *testing.T) {
	engine := newTestEngine(&countingTemplate{kind: KindGapProfile, n: 3, panicOn: "prompt"})
	ctx := context.Background()

	first, err := engine.Run(ctx, KindGapProfile, nil, Input{UserID: 1, Text: "go"})
	require.NoError(t, err)
	snapshot := first.Clone()

	st, err := engine.Run(ctx, KindGapProfile, first, Input{UserID: 1, Text: "next"})
	assert.Nil(t, st)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "advance", stepErr.Step)
	assert.Equal(t, snapshot, first)
}

func TestEngine_MissingContext(t *testing.T) {
	engine := newTestEngine(NewJobGapTemplate(DemoSource{}, nil, nil))

	st, err := engine.Run(context.Background(), KindGapJob, nil, Input{UserID: 1, Text: "how do I match this job?"})
	assert.Nil(t, st)

	var mce *MissingContextError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, "job_posting_id", mce.Field)
	assert.Contains(t, mce.Message, "pick a job posting")
}

func TestEngine_InvalidResumptionRestarts(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	engine := NewEngine(zap.New(core), NewProfileGapTemplate(DemoSource{}))

	corrupt := &State{UserID: 1, Kind: KindGapProfile, CurrentIndex: 7, TotalCount: 3, Items: make([]Item, 3)}
	st, err := engine.Run(context.Background(), KindGapProfile, corrupt, Input{UserID: 1, Text: "next"})
	require.NoError(t, err)

	assert.Equal(t, "identify_gaps", st.CurrentStep)
	assert.Equal(t, 0, st.CurrentIndex)
	assert.Len(t, st.Messages, 2)
	assert.Equal(t, 1, logs.FilterMessage("discarding workflow state").Len())
}

func TestEngine_KindMismatchRestarts(t *testing.T) {
	engine := newTestEngine(NewProfileGapTemplate(DemoSource{}), NewResumeTemplate(DemoSource{}))
	ctx := context.Background()

	resume, err := engine.Run(ctx, KindResumeGeneration, nil, Input{UserID: 1, Text: "build my resume"})
	require.NoError(t, err)

	st, err := engine.Run(ctx, KindGapProfile, resume, Input{UserID: 1, Text: "gaps?"})
	require.NoError(t, err)
	assert.Equal(t, KindGapProfile, st.Kind)
	assert.Equal(t, "identify_gaps", st.CurrentStep)
}

func TestEngine_UnknownKind(t *testing.T) {
	_, err := newTestEngine().Run(context.Background(), KindGapJob, nil, Input{UserID: 1})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestEngine_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(&countingTemplate{kind: KindGapProfile, n: 1}).Run(ctx, KindGapProfile, nil, Input{UserID: 1})
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_RestartAfterCompletion(t *testing.T) {
	engine := newTestEngine(&countingTemplate{kind: KindGapProfile, n: 1})
	ctx := context.Background()

	st, err := engine.Run(ctx, KindGapProfile, nil, Input{UserID: 1, Text: "a"})
	require.NoError(t, err)
	st, err = engine.Run(ctx, KindGapProfile, st, Input{UserID: 1, Text: "b"})
	require.NoError(t, err)
	require.True(t, st.Completed)

	st, err = engine.Run(ctx, KindGapProfile, st, Input{UserID: 1, Text: "c"})
	require.NoError(t, err)
	assert.False(t, st.Completed)
	assert.Len(t, st.Messages, 2)
}

func TestEngine_Kinds(t *testing.T) {
	engine := newTestEngine(DefaultTemplates(nil, nil, nil)...)
	assert.Equal(t, Kinds(), engine.Kinds())

	tmpl, ok := engine.Template(KindReachout)
	require.True(t, ok)
	assert.Equal(t, KindReachout, tmpl.Kind())
}

// N items take exactly N+1 turns and produce N+1 tagged assistant messages,
// with the index invariant holding after every turn.
func TestEngine_MessageCountProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(t, "n")
		engine := newTestEngine(&countingTemplate{kind: KindResumeGeneration, n: n})
		ctx := context.Background()

		var st *State
		turns := 0
		for st == nil || !st.Completed {
			next, err := engine.Run(ctx, KindResumeGeneration, st, Input{UserID: 9, Text: "reply"})
			if err != nil {
				t.Fatalf("turn %d: %v", turns, err)
			}
			st = next
			turns++

			if st.CurrentIndex < 0 || st.CurrentIndex > st.TotalCount || st.TotalCount != len(st.Items) {
				t.Fatalf("invariant broken: index=%d total=%d items=%d", st.CurrentIndex, st.TotalCount, len(st.Items))
			}
			if turns > n+1 {
				t.Fatalf("did not complete within %d turns", n+1)
			}
		}

		if turns != n+1 {
			t.Fatalf("completed after %d turns, want %d", turns, n+1)
		}
		assistant := 0
		for _, m := range st.Messages {
			if m.Role == RoleAssistant {
				assistant++
				if m.Workflow != KindResumeGeneration {
					t.Fatalf("message not tagged with kind: %+v", m)
				}
			}
		}
		if assistant != n+1 {
			t.Fatalf("got %d assistant messages, want %d", assistant, n+1)
		}
	})
}
