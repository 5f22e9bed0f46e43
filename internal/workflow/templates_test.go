package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/career-assistant/internal/usercontext"
)

func runToCompletion(t *testing.T, engine *Engine, kind Kind, in Input) *State {
	t.Helper()
	var st *State
	for i := 0; i < 10; i++ {
		next, err := engine.Run(context.Background(), kind, st, in)
		require.NoError(t, err)
		st = next
		if st.Completed {
			return st
		}
	}
	t.Fatalf("workflow %s did not complete", kind)
	return nil
}

type failingJobs struct{}

func (failingJobs) JobPosting(context.Context, int64) (*usercontext.JobPosting, error) {
	return nil, errors.New("db down")
}

func TestJobGapTemplate_UsesProviderPosting(t *testing.T) {
	jobs := usercontext.NewStaticProvider()
	jobs.AddJobPosting(&usercontext.JobPosting{ID: 42, Title: "Staff Engineer", Company: "Globex"})
	engine := newTestEngine(NewJobGapTemplate(DemoSource{}, jobs, nil))

	st, err := engine.Run(context.Background(), KindGapJob, nil, Input{
		UserID:  1,
		Text:    "how do I match this job?",
		Context: map[string]any{"job_posting_id": float64(42)},
	})
	require.NoError(t, err)
	require.NotNil(t, st.JobPostingID)
	assert.Equal(t, int64(42), *st.JobPostingID)

	msg, _ := st.LastAssistantMessage()
	assert.Contains(t, msg.Content, "Job Gap Analysis: Staff Engineer")
	assert.Contains(t, msg.Content, "**Company:** Globex")
	assert.Contains(t, msg.Content, "React Native Development")
	assert.Contains(t, msg.Content, "AWS Cloud Infrastructure")
	assert.Contains(t, msg.Content, "Team Leadership")
}

func TestJobGapTemplate_DemoPostingOnLookupFailure(t *testing.T) {
	engine := newTestEngine(NewJobGapTemplate(DemoSource{}, failingJobs{}, nil))

	st := runToCompletion(t, engine, KindGapJob, Input{
		UserID:  1,
		Text:    "job gaps",
		Context: map[string]any{"job_posting_id": "7"},
	})
	msg, _ := st.LastAssistantMessage()
	assert.Contains(t, msg.Content, "Senior Full Stack Engineer at TechCorp Inc")
	assert.Contains(t, msg.Content, "Critical gaps: 1 addressed")
	assert.Contains(t, msg.Content, "continue your job application preparation")
}

func TestJobGapTemplate_ResumeWithoutPostingRestarts(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	engine := NewEngine(zap.New(core), NewJobGapTemplate(DemoSource{}, nil, nil))
	ctx := context.Background()
	in := Input{UserID: 1, Text: "job gaps", Context: map[string]any{"job_posting_id": 5}}

	st, err := engine.Run(ctx, KindGapJob, nil, in)
	require.NoError(t, err)
	st, err = engine.Run(ctx, KindGapJob, st, Input{UserID: 1, Text: "I'll take a course"})
	require.NoError(t, err)
	require.Equal(t, 1, st.CurrentIndex)

	st.JobPostingID = nil
	assert.Error(t, NewJobGapTemplate(DemoSource{}, nil, nil).ValidateState(st))

	restarted, err := engine.Run(ctx, KindGapJob, st, in)
	require.NoError(t, err)
	assert.Equal(t, "analyze_job_requirements", restarted.CurrentStep)
	assert.Equal(t, 0, restarted.CurrentIndex)
	require.NotNil(t, restarted.JobPostingID)
	assert.Equal(t, int64(5), *restarted.JobPostingID)
	assert.Equal(t, 1, logs.FilterMessage("discarding workflow state").Len())

	_, err = engine.Run(ctx, KindGapJob, st, Input{UserID: 1, Text: "next"})
	var mce *MissingContextError
	assert.ErrorAs(t, err, &mce)
}

func TestJobPostingIDFrom(t *testing.T) {
	tests := []struct {
		name   string
		ctx    map[string]any
		want   int64
		wantOK bool
	}{
		{"int", map[string]any{"job_posting_id": 5}, 5, true},
		{"int64", map[string]any{"job_posting_id": int64(6)}, 6, true},
		{"json float", map[string]any{"job_posting_id": float64(7)}, 7, true},
		{"numeric string", map[string]any{"job_posting_id": " 8 "}, 8, true},
		{"fraction", map[string]any{"job_posting_id": 1.5}, 0, false},
		{"zero", map[string]any{"job_posting_id": 0}, 0, false},
		{"negative", map[string]any{"job_posting_id": -3}, 0, false},
		{"word", map[string]any{"job_posting_id": "abc"}, 0, false},
		{"bool", map[string]any{"job_posting_id": true}, 0, false},
		{"null", map[string]any{"job_posting_id": nil}, 0, false},
		{"missing", map[string]any{}, 0, false},
		{"nil map", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := JobPostingIDFrom(tt.ctx)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResumeTemplate(t *testing.T) {
	engine := newTestEngine(NewResumeTemplate(DemoSource{}))
	ctx := context.Background()

	st, err := engine.Run(ctx, KindResumeGeneration, nil, Input{
		UserID:  2,
		Text:    "build my resume",
		Context: map[string]any{"target_role": "Backend Engineer"},
	})
	require.NoError(t, err)
	msg, _ := st.LastAssistantMessage()
	assert.Contains(t, msg.Content, "Resume Draft: Backend Engineer")
	assert.Contains(t, msg.Content, "Section 1/3: Professional Summary")

	st = runToCompletion(t, engine, KindResumeGeneration, Input{UserID: 2, Text: "looks good"})
	msg, _ = st.LastAssistantMessage()
	assert.Contains(t, msg.Content, "Section 3/3 - Reviewed!")
	assert.Contains(t, msg.Content, "**PROFESSIONAL SUMMARY**")
	assert.Contains(t, msg.Content, "**TECHNICAL SKILLS**")
	assert.Contains(t, msg.Content, "Senior Developer | Tech Corp")
	assert.Contains(t, msg.Content, "Format for ATS compatibility")
}

func TestProfileAnalysisTemplate_UsesProfile(t *testing.T) {
	engine := newTestEngine(NewProfileAnalysisTemplate())
	user := &usercontext.UserContext{
		UserID:     5,
		HasProfile: true,
		Profile: &usercontext.Profile{
			Skills:          []string{"Go", "Kubernetes"},
			YearsExperience: 8,
			Education:       "MS Distributed Systems",
			Strengths:       []string{"Platform design"},
		},
	}

	st := runToCompletion(t, engine, KindProfileAnalysis, Input{UserID: 5, Text: "my strengths?", User: user})
	msg, _ := st.LastAssistantMessage()
	assert.Contains(t, msg.Content, "8 years of experience")
	assert.Contains(t, msg.Content, "Go and Kubernetes")
	assert.Contains(t, msg.Content, "MS Distributed Systems")
	assert.Contains(t, msg.Content, "Platform design expertise")
}

func TestProfileAnalysisTemplate_DemoProfile(t *testing.T) {
	engine := newTestEngine(NewProfileAnalysisTemplate())

	st := runToCompletion(t, engine, KindProfileAnalysis, Input{UserID: 5, Text: "tell me about my profile"})
	msg, _ := st.LastAssistantMessage()
	assert.Contains(t, msg.Content, "5 years of experience")
	assert.Contains(t, msg.Content, "Python and React")
	assert.Contains(t, msg.Content, "BS Computer Science")
}

func TestReachoutTemplate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantType string
		wantText string
	}{
		{"referral", "Can you help me ask for a referral?", ReachoutReferral, "Subject: Referral Request"},
		{"networking", "help me reach out to someone", ReachoutNetworking, "Connecting with a Fellow Tech Professional"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(NewReachoutTemplate())
			st := runToCompletion(t, engine, KindReachout, Input{UserID: 1, Text: tt.text})

			assert.Equal(t, tt.wantType, st.Fact(FactReachoutType))
			msg, _ := st.LastAssistantMessage()
			assert.Contains(t, msg.Content, tt.wantText)
			assert.Contains(t, msg.Content, "Tips for sending:")
			assert.Contains(t, msg.Content, "5. Always attach your resume")
		})
	}
}

func TestDefaultTemplates_CoverAllKinds(t *testing.T) {
	seen := map[Kind]bool{}
	for _, tmpl := range DefaultTemplates(nil, nil, nil) {
		seen[tmpl.Kind()] = true
		labels := tmpl.Labels()
		assert.NotEmpty(t, labels.Entry)
		assert.NotEmpty(t, labels.Finalize)
	}
	for _, k := range Kinds() {
		assert.True(t, seen[k], "missing template for %s", k)
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("gap_analysis_job")
	require.NoError(t, err)
	assert.Equal(t, KindGapJob, k)

	_, err = ParseKind("cover_letter")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestState_Clone(t *testing.T) {
	id := int64(4)
	orig := &State{
		Messages:     []Message{{Role: RoleUser, Content: "hi", Metadata: map[string]any{"a": 1}}},
		Items:        []Item{{Title: "x", Suggestions: []string{"s1"}}},
		Facts:        map[string]string{"k": "v"},
		JobPostingID: &id,
	}

	cp := orig.Clone()
	cp.Messages[0].Metadata["a"] = 2
	cp.Items[0].Suggestions[0] = "changed"
	cp.Facts["k"] = "changed"
	*cp.JobPostingID = 99

	assert.Equal(t, 1, orig.Messages[0].Metadata["a"])
	assert.Equal(t, "s1", orig.Items[0].Suggestions[0])
	assert.Equal(t, "v", orig.Facts["k"])
	assert.Equal(t, int64(4), *orig.JobPostingID)

	var nilState *State
	assert.Nil(t, nilState.Clone())
}
