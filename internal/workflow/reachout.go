package workflow

import (
	"context"
	"fmt"
	"strings"
)

// Reachout types
const (
	ReachoutReferral   = "referral"
	ReachoutNetworking = "networking"
)

// ReachoutTemplate drafts a networking or referral message in a single turn
type ReachoutTemplate struct{}

// NewReachoutTemplate creates the reachout workflow
func NewReachoutTemplate() *ReachoutTemplate {
	return &ReachoutTemplate{}
}

func (t *ReachoutTemplate) Kind() Kind { return KindReachout }

func (t *ReachoutTemplate) Labels() StepLabels {
	return StepLabels{Entry: "analyze_context", Finalize: "generate_message"}
}

// Build picks the reachout type from the message that started the workflow
func (t *ReachoutTemplate) Build(_ context.Context, in Input) (Payload, error) {
	facts := profileFacts(in.User)
	if strings.Contains(strings.ToLower(in.Text), "referral") {
		facts[FactReachoutType] = ReachoutReferral
		facts[FactReferrerInfo] = "Senior Engineer at Target Company"
		facts[FactJobInfo] = "Software Engineer position"
		if title, ok := contextString(in.Context, "job_title"); ok {
			facts[FactJobInfo] = title + " position"
		}
	} else {
		facts[FactReachoutType] = ReachoutNetworking
		facts[FactReferrerInfo] = "Industry professional"
	}
	return Payload{Facts: facts}, nil
}

func (t *ReachoutTemplate) RenderEntry(*State) string { return "" }

func (t *ReachoutTemplate) RenderPrompt(*State, int) string { return "" }

func (t *ReachoutTemplate) RenderFinalize(st *State) string {
	skills := factList(st, FactSkills)
	years := st.Fact(FactYearsExperience)

	var message string
	if st.Fact(FactReachoutType) == ReachoutReferral {
		message = fmt.Sprintf(`Subject: Referral Request - %s

Hi [Name],

I hope this message finds you well. I noticed you're a %s, and I'm very interested in the %s role at your company.

With my %s years of experience and expertise in %s and %s, I believe I would be a strong fit for the team.

Would you be open to a brief 15-minute call to discuss the role and potentially provide a referral? I'd love to learn more about your experience at the company and the team culture.

I've attached my resume for your reference. Thank you for considering my request!

Best regards,
[Your name]`, st.Fact(FactJobInfo), st.Fact(FactReferrerInfo), st.Fact(FactJobInfo),
			years, listItem(skills, 0, "software engineering"), listItem(skills, 1, "system design"))
	} else {
		message = fmt.Sprintf(`Subject: Connecting with a Fellow Tech Professional

Hi [Name],

I came across your profile and was impressed by your journey in software engineering. As someone with %s years in the field, I'm always eager to connect with experienced professionals.

I'd love to learn more about your career path and any insights you might share about [specific topic/company]. Would you be open to a brief virtual coffee chat?

Looking forward to connecting!

Best regards,
[Your name]`, years)
	}

	return fmt.Sprintf(`I've generated a personalized reachout message for you:

---

%s

---

**Tips for sending:**
1. Personalize the [Name] and any [bracketed] sections
2. Keep the message concise and respectful
3. Send during business hours (Tue-Thu, 9-11 AM works best)
4. Follow up once after a week if no response
5. Always attach your resume for referral requests`, message)
}

func (t *ReachoutTemplate) NextStepsMenu() string { return "" }
