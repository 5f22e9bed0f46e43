package workflow

import (
	"context"
	"fmt"
)

// ProfileAnalysisTemplate summarizes the user's profile in a single turn
type ProfileAnalysisTemplate struct{}

// NewProfileAnalysisTemplate creates the profile analysis workflow
func NewProfileAnalysisTemplate() *ProfileAnalysisTemplate {
	return &ProfileAnalysisTemplate{}
}

func (t *ProfileAnalysisTemplate) Kind() Kind { return KindProfileAnalysis }

func (t *ProfileAnalysisTemplate) Labels() StepLabels {
	return StepLabels{Entry: "analyze_profile", Finalize: "generate_insights"}
}

func (t *ProfileAnalysisTemplate) Build(_ context.Context, in Input) (Payload, error) {
	return Payload{Facts: profileFacts(in.User)}, nil
}

func (t *ProfileAnalysisTemplate) RenderEntry(*State) string { return "" }

func (t *ProfileAnalysisTemplate) RenderPrompt(*State, int) string { return "" }

func (t *ProfileAnalysisTemplate) RenderFinalize(st *State) string {
	skills := factList(st, FactSkills)
	strengths := factList(st, FactStrengths)
	skillA := listItem(skills, 0, "your core skills")
	skillB := listItem(skills, 1, "related tools")

	return fmt.Sprintf(`Based on your profile analysis:

**Key Strengths:**
- Strong technical foundation with %s years of experience
- Versatile skill set covering %s, %s and more
- %s provides solid theoretical background

**Career Highlights:**
- Your combination of %s and %s is highly sought after
- %s expertise positions you well for senior roles

**Growth Opportunities:**
- Consider expanding into cloud technologies or DevOps
- Leadership and mentoring skills could enhance your career trajectory
- Certifications in your core technologies could validate your expertise`,
		st.Fact(FactYearsExperience), skillA, skillB, st.Fact(FactEducation),
		skillA, skillB, listItem(strengths, 0, "Your problem solving"))
}

func (t *ProfileAnalysisTemplate) NextStepsMenu() string {
	return `🚀 **What would you like to do next?** I can find your skill gaps, build a resume, or draft an outreach message.`
}
