package workflow

import (
	"context"
	"fmt"
	"strings"
)

// ProfileGapTemplate walks the user through gaps in their general profile,
// one gap per turn.
type ProfileGapTemplate struct {
	source ItemSource
}

// NewProfileGapTemplate creates the profile gap workflow
func NewProfileGapTemplate(source ItemSource) *ProfileGapTemplate {
	return &ProfileGapTemplate{source: source}
}

func (t *ProfileGapTemplate) Kind() Kind { return KindGapProfile }

func (t *ProfileGapTemplate) Labels() StepLabels {
	return StepLabels{Entry: "identify_gaps", Advance: "show_next_gap", Finalize: "complete_analysis"}
}

func (t *ProfileGapTemplate) Build(ctx context.Context, in Input) (Payload, error) {
	facts := profileFacts(in.User)
	items, err := t.source.Items(ctx, KindGapProfile, facts)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Items: items, Facts: facts}, nil
}

func (t *ProfileGapTemplate) RenderEntry(st *State) string {
	return fmt.Sprintf(`📊 **Profile Gap Analysis**

I've identified **%d key areas** for improvement. Let's address them one by one:

%s

*What's your plan to improve this skill?*`, st.TotalCount, profileGapBlock(st, 0))
}

func (t *ProfileGapTemplate) RenderPrompt(st *State, next int) string {
	return fmt.Sprintf(`%s

Great approach! Now let's work on:

%s

*What's your strategy for this skill gap?*`, planSet("Gap", next-1, st.TotalCount), profileGapBlock(st, next))
}

func (t *ProfileGapTemplate) RenderFinalize(st *State) string {
	if st.TotalCount == 0 {
		return "🎉 **Profile Gap Analysis Complete!**\n\nI couldn't find any significant skill gaps in your profile. Nice work!"
	}

	var sb strings.Builder
	sb.WriteString(planSet("Gap", st.TotalCount-1, st.TotalCount))
	sb.WriteString("\n\nExcellent work! You've addressed all skill gaps.\n\n")
	sb.WriteString("🎉 **Profile Gap Analysis Complete!**\n\n")
	sb.WriteString(fmt.Sprintf("You've addressed all **%d skill gaps**:\n\n", st.TotalCount))
	for i, gap := range st.Items {
		sb.WriteString(fmt.Sprintf("✅ **%d. %s** - Plan created\n", i+1, gap.Title))
	}
	sb.WriteString(`
**Next Steps:**
- Follow through on your improvement plans
- Track progress over the next 3-6 months
- Consider setting specific milestones
- Update your profile as you develop these skills

*Your career development roadmap is now much clearer!*`)
	return sb.String()
}

func (t *ProfileGapTemplate) NextStepsMenu() string {
	return `🚀 **What would you like to do next?**

Here are some options to continue your career development:

1. **📄 Generate a tailored resume** - Create a resume optimized for specific roles
2. **🎯 Analyze job gaps** - Compare your profile against a specific job posting
3. **✉️ Create outreach messages** - Generate personalized networking messages
4. **💬 General career advice** - Ask me anything about your career path

*Just let me know what interests you most!*`
}

func profileGapBlock(st *State, i int) string {
	gap := st.Items[i]
	return fmt.Sprintf(`**Gap %d/%d: %s**
- Current: %s
- Target: %s
- Suggestions: %s`, i+1, st.TotalCount, gap.Title, gap.CurrentLevel, gap.TargetLevel, gap.SuggestionList())
}

// planSet acknowledges the user's answer to item i
func planSet(noun string, i, total int) string {
	return fmt.Sprintf("✅ **%s %d/%d - Plan Set!**", noun, i+1, total)
}
