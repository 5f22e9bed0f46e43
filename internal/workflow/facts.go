package workflow

import (
	"strconv"
	"strings"

	"github.com/jonathan/career-assistant/internal/usercontext"
)

// Fact keys shared by the profile-based workflows
const (
	FactSkills          = "skills"
	FactYearsExperience = "years_experience"
	FactEducation       = "education"
	FactStrengths       = "strengths"
	FactHasProfile      = "has_profile"
	FactResumeCount     = "resume_count"
	FactJobTitle        = "job_title"
	FactCompany         = "company"
	FactTargetRole      = "target_role"
	FactReachoutType    = "reachout_type"
	FactReferrerInfo    = "referrer_info"
	FactJobInfo         = "job_info"
)

const listSep = ", "

var demoProfile = usercontext.Profile{
	Skills:          []string{"Python", "React", "Node.js"},
	YearsExperience: 5,
	Education:       "BS Computer Science",
	Strengths:       []string{"Full-stack development", "Problem solving", "Team collaboration"},
}

// profileFacts flattens the user's profile into facts, falling back to the
// demo profile when the user has none on file.
func profileFacts(uc *usercontext.UserContext) map[string]string {
	profile := demoProfile
	facts := map[string]string{
		FactHasProfile:  "false",
		FactResumeCount: "0",
	}
	if uc != nil {
		facts[FactHasProfile] = strconv.FormatBool(uc.HasProfile)
		facts[FactResumeCount] = strconv.Itoa(uc.ResumeCount)
		if uc.HasProfile && uc.Profile != nil && len(uc.Profile.Skills) > 0 {
			profile = *uc.Profile
		}
	}

	facts[FactSkills] = strings.Join(profile.Skills, listSep)
	facts[FactYearsExperience] = strconv.Itoa(profile.YearsExperience)
	facts[FactEducation] = profile.Education
	facts[FactStrengths] = strings.Join(profile.Strengths, listSep)
	return facts
}

// factList splits a list-valued fact
func factList(st *State, key string) []string {
	v := st.Fact(key)
	if v == "" {
		return nil
	}
	return strings.Split(v, listSep)
}

// listItem returns list[i] or fallback when out of range
func listItem(list []string, i int, fallback string) string {
	if i < len(list) && list[i] != "" {
		return list[i]
	}
	return fallback
}

// contextString reads a non-empty string from turn context
func contextString(ctx map[string]any, key string) (string, bool) {
	v, ok := ctx[key].(string)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
