package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/career-assistant/internal/llm"
	"github.com/jonathan/career-assistant/internal/prompts"
	"github.com/jonathan/career-assistant/internal/schemas"
)

// ItemSource produces the items a workflow walks through
type ItemSource interface {
	Items(ctx context.Context, kind Kind, facts map[string]string) ([]Item, error)
}

// DemoSource returns fixed demonstration items
type DemoSource struct{}

// Items returns a fresh copy of the demo items for kind
func (DemoSource) Items(_ context.Context, kind Kind, _ map[string]string) ([]Item, error) {
	switch kind {
	case KindGapProfile:
		return cloneItems(demoProfileGaps), nil
	case KindGapJob:
		return cloneItems(demoJobGaps), nil
	case KindResumeGeneration:
		return cloneItems(demoResumeSections), nil
	default:
		return nil, nil
	}
}

var demoProfileGaps = []Item{
	{
		Title:        "Cloud Technologies",
		CurrentLevel: "Basic",
		TargetLevel:  "Advanced",
		Severity:     "high",
		Suggestions:  []string{"Take AWS certification", "Build cloud projects"},
	},
	{
		Title:        "Leadership Experience",
		CurrentLevel: "Individual Contributor",
		TargetLevel:  "Team Lead",
		Severity:     "medium",
		Suggestions:  []string{"Lead a project", "Mentor junior developers"},
	},
	{
		Title:        "System Design",
		CurrentLevel: "Junior Level",
		TargetLevel:  "Senior Level",
		Severity:     "high",
		Suggestions:  []string{"Study system design patterns", "Practice design interviews"},
	},
}

var demoJobGaps = []Item{
	{
		Title:        "React Native Development",
		Importance:   "critical",
		CurrentLevel: "No experience",
		TargetLevel:  "3+ years",
		Severity:     "high",
		Suggestions:  []string{"Complete React Native bootcamp", "Build 2-3 mobile apps", "Contribute to RN open source"},
	},
	{
		Title:        "AWS Cloud Infrastructure",
		Importance:   "important",
		CurrentLevel: "Basic",
		TargetLevel:  "Intermediate",
		Severity:     "medium",
		Suggestions:  []string{"Get AWS Solutions Architect certification", "Deploy production apps on AWS"},
	},
	{
		Title:        "Team Leadership",
		Importance:   "preferred",
		CurrentLevel: "Individual contributor",
		TargetLevel:  "Led 3+ person teams",
		Severity:     "low",
		Suggestions:  []string{"Lead a cross-functional project", "Mentor junior developers"},
	},
}

var demoResumeSections = []Item{
	{
		Title:       "Professional Summary",
		Detail:      "Experienced software engineer with 5 years in full-stack development",
		Suggestions: []string{"Lead with your strongest result", "Keep it to two or three sentences"},
	},
	{
		Title:       "Technical Skills",
		Detail:      "Python, JavaScript, React, Node.js, PostgreSQL",
		Suggestions: []string{"Order skills by relevance to the role", "Match keywords from job descriptions"},
	},
	{
		Title:       "Experience",
		Detail:      "Senior Developer | Tech Corp\n2021-Present\n• Led team of 5\n• Improved performance by 40%",
		Suggestions: []string{"Add specific metrics", "Start each bullet with an action verb"},
	},
}

// GeneratedSource asks the completion service for items and validates the
// result against the workflow items schema before use.
type GeneratedSource struct {
	client  llm.Client
	tier    llm.ModelTier
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeneratedSource creates a GeneratedSource. A zero timeout means
// llm.DefaultGenerateTimeout.
func NewGeneratedSource(client llm.Client, timeout time.Duration, logger *zap.Logger) *GeneratedSource {
	if timeout <= 0 {
		timeout = llm.DefaultGenerateTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeneratedSource{
		client:  client,
		tier:    llm.TierAdvanced,
		timeout: timeout,
		logger:  logger.Named("item_source"),
	}
}

// Items generates items for kind from the given facts
func (s *GeneratedSource) Items(ctx context.Context, kind Kind, facts map[string]string) ([]Item, error) {
	task, err := prompts.Get(prompts.GenerationFile, string(kind))
	if err != nil {
		return nil, err
	}
	prompt := llm.BuildStructuredPrompt(llm.WorkflowItemsSchema(task), FormatFacts(facts))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	doc, err := s.client.GenerateJSON(ctx, prompt, s.tier)
	if err != nil {
		return nil, fmt.Errorf("failed to generate items: %w", err)
	}

	if err := schemas.ValidateWorkflowItems(doc); err != nil {
		s.logger.Warn("generated items rejected", zap.String("kind", string(kind)), zap.Error(err))
		return nil, fmt.Errorf("generated items failed validation: %w", err)
	}

	var out struct {
		Items []Item `json:"items"`
	}
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return nil, fmt.Errorf("failed to decode generated items: %w", err)
	}

	s.logger.Info("generated items",
		zap.String("kind", string(kind)),
		zap.String("model", s.client.GetModel(s.tier)),
		zap.Int("count", len(out.Items)),
		zap.Duration("elapsed", time.Since(start)))
	return out.Items, nil
}

// FormatFacts renders facts as sorted "key: value" lines
func FormatFacts(facts map[string]string) string {
	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(facts[k])
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
