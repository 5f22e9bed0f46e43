package coordinator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/career-assistant/internal/llm"
	"github.com/jonathan/career-assistant/internal/prompts"
	"github.com/jonathan/career-assistant/internal/usercontext"
	"github.com/jonathan/career-assistant/internal/workflow"
)

// DirectRequest is what a direct responder may see. It carries no session
// state.
type DirectRequest struct {
	Text    string
	History []workflow.Message
	User    *usercontext.UserContext
}

// DirectResponder answers messages that need no workflow
type DirectResponder interface {
	Respond(ctx context.Context, req DirectRequest) (string, error)
}

// LLMResponder answers with a single completion call
type LLMResponder struct {
	client  llm.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewLLMResponder creates an LLMResponder. A zero timeout means llm.DefaultGenerateTimeout.
func NewLLMResponder(client llm.Client, timeout time.Duration, logger *zap.Logger) *LLMResponder {
	if timeout <= 0 {
		timeout = llm.DefaultGenerateTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMResponder{client: client, timeout: timeout, logger: logger.Named("direct")}
}

// Respond generates a conversational answer
func (r *LLMResponder) Respond(ctx context.Context, req DirectRequest) (string, error) {
	system, err := prompts.Get(prompts.ResponsesFile, "direct-system")
	if err != nil {
		return "", err
	}

	var history strings.Builder
	from := len(req.History) - 6
	if from < 0 {
		from = 0
	}
	for _, m := range req.History[from:] {
		history.WriteString(fmt.Sprintf("%s: %s\n", m.Role, m.Content))
	}
	if history.Len() > 0 {
		history.WriteString("\n")
	}

	user, err := prompts.Render(prompts.ResponsesFile, "direct-user", map[string]string{
		"History":     history.String(),
		"UserContext": req.User.Summary(),
		"Message":     req.Text,
	})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	text, err := r.client.GenerateContent(ctx, system+"\n\n"+user, llm.TierStandard)
	if err != nil {
		return "", fmt.Errorf("direct response: %w", err)
	}
	r.logger.Debug("direct response generated", zap.Duration("elapsed", time.Since(start)))
	return strings.TrimSpace(text), nil
}

// StaticResponder always gives the same answer; used when no completion
// service is configured.
type StaticResponder struct {
	Text string
}

// Respond returns the fixed text, or the canned help text when empty
func (s StaticResponder) Respond(context.Context, DirectRequest) (string, error) {
	if s.Text != "" {
		return s.Text, nil
	}
	return prompts.Get(prompts.ResponsesFile, "direct-fallback")
}
