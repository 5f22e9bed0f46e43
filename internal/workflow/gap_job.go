package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/career-assistant/internal/usercontext"
)

const (
	demoJobTitle   = "Senior Full Stack Engineer"
	demoJobCompany = "TechCorp Inc"
)

// JobLookup resolves job postings by id
type JobLookup interface {
	JobPosting(ctx context.Context, id int64) (*usercontext.JobPosting, error)
}

// JobGapTemplate compares the user's profile against one job posting and
// walks through the gaps in priority order.
type JobGapTemplate struct {
	source ItemSource
	jobs   JobLookup
	logger *zap.Logger
}

// NewJobGapTemplate creates the job gap workflow. jobs may be nil, in which
// case the demo posting is used.
func NewJobGapTemplate(source ItemSource, jobs JobLookup, logger *zap.Logger) *JobGapTemplate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobGapTemplate{source: source, jobs: jobs, logger: logger.Named("gap_job")}
}

func (t *JobGapTemplate) Kind() Kind { return KindGapJob }

func (t *JobGapTemplate) Labels() StepLabels {
	return StepLabels{Entry: "analyze_job_requirements", Advance: "resolve_gaps", Finalize: "complete_analysis"}
}

func (t *JobGapTemplate) Build(ctx context.Context, in Input) (Payload, error) {
	id, ok := JobPostingIDFrom(in.Context)
	if !ok {
		return Payload{}, &MissingContextError{
			Kind:    KindGapJob,
			Field:   "job_posting_id",
			Message: "To compare your profile against a job, please pick a job posting first. Select one from your saved postings and ask me again.",
		}
	}

	title, company := demoJobTitle, demoJobCompany
	if t.jobs != nil {
		jp, err := t.jobs.JobPosting(ctx, id)
		switch {
		case err != nil:
			t.logger.Warn("job posting lookup failed, using demo posting", zap.Int64("job_posting_id", id), zap.Error(err))
		case jp != nil:
			title, company = jp.Title, jp.Company
		}
	}

	facts := profileFacts(in.User)
	facts[FactJobTitle] = title
	facts[FactCompany] = company
	facts["job_posting_id"] = strconv.FormatInt(id, 10)

	items, err := t.source.Items(ctx, KindGapJob, facts)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Items: items, Facts: facts, JobPostingID: &id}, nil
}

// ValidateState rejects a resumed run that lost its job posting
func (t *JobGapTemplate) ValidateState(st *State) error {
	if st.JobPostingID == nil {
		return errors.New("job_posting_id is missing")
	}
	return nil
}

func (t *JobGapTemplate) RenderEntry(st *State) string {
	lines := make([]string, len(st.Items))
	for i, gap := range st.Items {
		lines[i] = fmt.Sprintf("• **%s**: %s → %s (%s priority)", gap.Title, gap.CurrentLevel, gap.TargetLevel, gap.Severity)
	}
	first := st.Items[0]

	return fmt.Sprintf(`🎯 **Job Gap Analysis: %s**
**Company:** %s

I've analyzed your profile against this job and found **%d gaps** to address:

%s

Let's tackle the most critical gap first:

**Gap 1/%d: %s** (%s priority)
- Your level: %s
- Job needs: %s
- Action plan: %s

*How do you plan to bridge this gap? What timeline works for you?*`,
		st.Fact(FactJobTitle), st.Fact(FactCompany), st.TotalCount, strings.Join(lines, "\n"),
		st.TotalCount, first.Title, first.Severity, first.CurrentLevel, first.TargetLevel, first.SuggestionList())
}

func (t *JobGapTemplate) RenderPrompt(st *State, next int) string {
	gap := st.Items[next]
	return fmt.Sprintf(`%s

Great strategy! Next requirement to address:

**Gap %d/%d: %s** (%s priority)
- Your level: %s
- Job needs: %s
- Suggested path: %s

*What's your approach for this requirement?*`,
		planSet("Gap", next-1, st.TotalCount), next+1, st.TotalCount,
		gap.Title, gap.Severity, gap.CurrentLevel, gap.TargetLevel, gap.SuggestionList())
}

func (t *JobGapTemplate) RenderFinalize(st *State) string {
	position := fmt.Sprintf("**Position:** %s at %s", st.Fact(FactJobTitle), st.Fact(FactCompany))
	if st.TotalCount == 0 {
		return "🎉 **Job Gap Analysis Complete!**\n\n" + position + "\n\nYour profile already covers this role's requirements. Go apply!"
	}

	critical := 0
	var sb strings.Builder
	sb.WriteString(planSet("Gap", st.TotalCount-1, st.TotalCount))
	sb.WriteString("\n\nExcellent work! You've addressed all job requirements.\n\n")
	sb.WriteString("🎉 **Job Gap Analysis Complete!**\n\n")
	sb.WriteString(position)
	sb.WriteString(fmt.Sprintf("\n\nYou've created action plans for all **%d identified gaps**:\n\n", st.TotalCount))
	for i, gap := range st.Items {
		if gap.Severity == "high" {
			critical++
		}
		sb.WriteString(fmt.Sprintf("✅ **%d. %s** (%s priority) - Plan ready\n", i+1, gap.Title, gap.Severity))
	}
	sb.WriteString(fmt.Sprintf(`
**Application Readiness Assessment:**
- Critical gaps: %d addressed
- Timeline needed: 2-6 months depending on gap severity
- Recommendation: Start working on critical gaps immediately

**Next Steps:**
1. Prioritize high-severity gaps first
2. Set specific milestones and deadlines
3. Consider applying once critical gaps are addressed
4. Update your resume as you gain these skills

*You now have a clear roadmap to become competitive for this role!*`, critical))
	return sb.String()
}

func (t *JobGapTemplate) NextStepsMenu() string {
	return `🚀 **What would you like to do next?**

Here are some options to continue your job application preparation:

1. **📄 Generate a tailored resume** - Create a resume optimized for this specific role
2. **📊 Analyze general profile gaps** - Work on overall career development
3. **✉️ Create outreach messages** - Generate personalized networking messages for this company
4. **💬 General career advice** - Ask me anything about your career path

*Just let me know what interests you most!*`
}
