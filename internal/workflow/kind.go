// Package workflow implements the multi-turn, item-by-item conversation
// engine shared by every career workflow, and the concrete workflows built
// on top of it.
package workflow

import (
	"fmt"
	"sort"
)

// Kind identifies a workflow type
type Kind string

// Workflow kinds
const (
	KindProfileAnalysis  Kind = "profile_analysis"
	KindGapProfile       Kind = "gap_analysis_profile"
	KindGapJob           Kind = "gap_analysis_job"
	KindResumeGeneration Kind = "resume_generation"
	KindReachout         Kind = "generate_reachout"
)

var allKinds = []Kind{
	KindProfileAnalysis,
	KindGapProfile,
	KindGapJob,
	KindResumeGeneration,
	KindReachout,
}

// Kinds returns every known workflow kind, sorted by name
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseKind validates a kind name
func ParseKind(s string) (Kind, error) {
	for _, k := range allKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Ptr returns a pointer to a copy of k
func (k Kind) Ptr() *Kind {
	return &k
}
