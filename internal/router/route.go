// Package router decides, for each user message, whether to answer directly
// or which workflow should handle it.
package router

import (
	"strings"

	"github.com/jonathan/career-assistant/internal/workflow"
)

// Route is a routing decision label
type Route string

// Routes understood by the coordinator
const (
	RouteDirect          Route = "DIRECT_RESPONSE"
	RouteProfileAnalysis Route = "PROFILE_ANALYSIS"
	RouteProfileGap      Route = "PROFILE_GAP_ANALYSIS"
	RouteJobGap          Route = "JOB_GAP_ANALYSIS"
	RouteResume          Route = "RESUME_GENERATION"
	RouteReachout        Route = "GENERATE_REACHOUT"
)

var routeKinds = map[Route]workflow.Kind{
	RouteProfileAnalysis: workflow.KindProfileAnalysis,
	RouteProfileGap:      workflow.KindGapProfile,
	RouteJobGap:          workflow.KindGapJob,
	RouteResume:          workflow.KindResumeGeneration,
	RouteReachout:        workflow.KindReachout,
}

// Routes returns every route in display order
func Routes() []Route {
	return []Route{RouteDirect, RouteProfileAnalysis, RouteProfileGap, RouteJobGap, RouteResume, RouteReachout}
}

// Kind maps a workflow route to its kind. DIRECT_RESPONSE has none.
func (r Route) Kind() (workflow.Kind, bool) {
	k, ok := routeKinds[r]
	return k, ok
}

// ForKind maps a workflow kind back to its route
func ForKind(kind workflow.Kind) Route {
	for r, k := range routeKinds {
		if k == kind {
			return r
		}
	}
	return RouteDirect
}

// ParseRoute normalizes a raw model label and reports whether it names a route.
// Quotes, backticks and trailing punctuation are stripped; spaces and
// hyphens become underscores.
func ParseRoute(label string) (Route, bool) {
	s := strings.TrimSpace(label)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, "\"'`*")
	s = strings.TrimRight(s, ".!?:;,")
	s = strings.Trim(s, "\"'`* ")
	s = strings.ToUpper(s)
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)

	r := Route(s)
	if r == RouteDirect {
		return r, true
	}
	_, ok := routeKinds[r]
	return r, ok
}
