package workflow

import (
	"context"
	"fmt"
	"strings"
)

const defaultTargetRole = "Software Engineer"

// ResumeTemplate drafts a resume and reviews it one section per turn
type ResumeTemplate struct {
	source ItemSource
}

// NewResumeTemplate creates the resume generation workflow
func NewResumeTemplate(source ItemSource) *ResumeTemplate {
	return &ResumeTemplate{source: source}
}

func (t *ResumeTemplate) Kind() Kind { return KindResumeGeneration }

func (t *ResumeTemplate) Labels() StepLabels {
	return StepLabels{Entry: "gather_info", Advance: "review_section", Finalize: "generate_resume"}
}

func (t *ResumeTemplate) Build(ctx context.Context, in Input) (Payload, error) {
	facts := profileFacts(in.User)
	facts[FactTargetRole] = defaultTargetRole
	if role, ok := contextString(in.Context, "target_role"); ok {
		facts[FactTargetRole] = role
	}

	items, err := t.source.Items(ctx, KindResumeGeneration, facts)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Items: items, Facts: facts}, nil
}

func (t *ResumeTemplate) RenderEntry(st *State) string {
	return fmt.Sprintf(`📄 **Resume Draft: %s**

I've drafted **%d sections** for your resume. Let's review them one at a time:

%s

*Anything you'd like to change in this section? Reply "looks good" to keep it.*`,
		st.Fact(FactTargetRole), st.TotalCount, sectionBlock(st, 0))
}

func (t *ResumeTemplate) RenderPrompt(st *State, next int) string {
	return fmt.Sprintf(`✅ **Section %d/%d - Reviewed!**

Noted. Next up:

%s

*How does this section look?*`, next, st.TotalCount, sectionBlock(st, next))
}

func (t *ResumeTemplate) RenderFinalize(st *State) string {
	var sb strings.Builder
	if st.TotalCount > 0 {
		sb.WriteString(fmt.Sprintf("✅ **Section %d/%d - Reviewed!**\n\n", st.TotalCount, st.TotalCount))
	}
	sb.WriteString(fmt.Sprintf("I've created a tailored resume for the %s position:\n", st.Fact(FactTargetRole)))
	for _, section := range st.Items {
		sb.WriteString(fmt.Sprintf("\n**%s**\n%s\n", strings.ToUpper(section.Title), section.Detail))
	}
	sb.WriteString(`
**Next Steps:**
1. Review and customize the content
2. Add specific metrics and achievements
3. Tailor keywords to match job descriptions
4. Format for ATS compatibility`)
	return sb.String()
}

func (t *ResumeTemplate) NextStepsMenu() string {
	return `🚀 **What would you like to do next?**

1. **🎯 Analyze job gaps** - See how this resume stacks up against a posting
2. **✉️ Create outreach messages** - Ask for a referral with your new resume
3. **💬 General career advice** - Ask me anything about your career path`
}

func sectionBlock(st *State, i int) string {
	section := st.Items[i]
	block := fmt.Sprintf("**Section %d/%d: %s**\n%s", i+1, st.TotalCount, section.Title, section.Detail)
	if len(section.Suggestions) > 0 {
		block += "\n\nTips: " + section.SuggestionList()
	}
	return block
}
