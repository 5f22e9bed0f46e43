package workflow

import "go.uber.org/zap"

// DefaultTemplates returns one template per workflow kind. jobs may be nil.
func DefaultTemplates(source ItemSource, jobs JobLookup, logger *zap.Logger) []Template {
	if source == nil {
		source = DemoSource{}
	}
	return []Template{
		NewProfileAnalysisTemplate(),
		NewProfileGapTemplate(source),
		NewJobGapTemplate(source, jobs, logger),
		NewResumeTemplate(source),
		NewReachoutTemplate(),
	}
}
