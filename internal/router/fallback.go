package router

import (
	"strings"

	"github.com/jonathan/career-assistant/internal/workflow"
)

type keywordRule struct {
	route Route
	match func(lowered string) bool
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Job gap comes first: "job" plus "gap" would otherwise always land on the
// profile gap rule.
var fallbackRules = []keywordRule{
	{RouteJobGap, func(s string) bool {
		return strings.Contains(s, "job") && containsAny(s, "match", "gap", "qualify")
	}},
	{RouteProfileGap, func(s string) bool {
		return containsAny(s, "gap", "missing", "lack", "need to improve", "skills am i missing")
	}},
	{RouteProfileAnalysis, func(s string) bool {
		return containsAny(s, "tell me about", "my profile", "my background", "my strengths")
	}},
	{RouteResume, func(s string) bool {
		return containsAny(s, "generate resume", "create resume", "build resume", "generate a resume", "tailored resume", "build my resume")
	}},
	{RouteReachout, func(s string) bool {
		return containsAny(s, "reachout", "outreach", "reach out", "referral")
	}},
}

// Fallback routes by keywords when classification is unavailable. A message
// that matches nothing continues the active workflow, if any.
func Fallback(text string, active *workflow.Kind) Route {
	lowered := strings.ToLower(text)
	for _, rule := range fallbackRules {
		if rule.match(lowered) {
			return rule.route
		}
	}
	if active != nil {
		return ForKind(*active)
	}
	return RouteDirect
}
