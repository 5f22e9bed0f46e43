package router

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

const (
	historyWindow  = 3
	historyPreview = 100
)

// Decision sources
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// Input is everything the router looks at for one message
type Input struct {
	Text    string
	History []workflow.Message
	User    *usercontext.UserContext
	// Active is the kind of the user's in-progress workflow, if any
	Active *workflow.Kind
}

// Decision is a route plus how it was reached
type Decision struct {
	Route  Route
	Source string
	Cause  string
}

// Router classifies messages with the completion service and falls back to
// keyword rules when that fails. It never returns an error.
type Router struct {
	client  llm.Client
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Router. client may be nil, in which case every decision uses
// the keyword rules.
func New(client llm.Client, timeout time.Duration, logger *zap.Logger) *Router {
	if timeout <= 0 {
		timeout = llm.DefaultClassifyTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{client: client, timeout: timeout, logger: logger.Named("router")}
}

// Route returns the route for a message
func (r *Router) Route(ctx context.Context, in Input) Route {
	return r.Decide(ctx, in).Route
}

// Decide classifies a message and reports how the route was chosen
func (r *Router) Decide(ctx context.Context, in Input) Decision {
	if r.client == nil {
		return r.fallback(in, "no completion service configured")
	}

	system, err := prompts.Get(prompts.RoutingFile, "system")
	if err != nil {
		return r.fallback(in, err.Error())
	}
	user, err := BuildPrompt(in)
	if err != nil {
		return r.fallback(in, err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	label, err := r.client.Classify(ctx, system, user, llm.TierLite)
	if err != nil {
		return r.fallback(in, fmt.Sprintf("classification failed: %v", err))
	}

	route, ok := ParseRoute(label)
	if !ok {
		return r.fallback(in, fmt.Sprintf("unknown label %q", label))
	}

	r.logger.Info("routed message",
		zap.String("route", string(route)),
		zap.String("message", preview(in.Text, 50)))
	return Decision{Route: route, Source: SourceModel}
}

func (r *Router) fallback(in Input, cause string) Decision {
	route := Fallback(in.Text, in.Active)
	r.logger.Warn("routing fallback",
		zap.String("route", string(route)),
		zap.String("cause", cause))
	return Decision{Route: route, Source: SourceFallback, Cause: cause}
}

// BuildPrompt renders the classification prompt: the latest message, the
// last few history messages in chronological order, the user context
// summary and the active workflow.
func BuildPrompt(in Input) (string, error) {
	var history strings.Builder
	if len(in.History) > 0 {
		start := len(in.History) - historyWindow
		if start < 0 {
			start = 0
		}
		history.WriteString("Recent conversation:\n")
		for _, m := range in.History[start:] {
			role := string(m.Role)
			if role == "" {
				role = string(workflow.RoleUser)
			}
			history.WriteString(fmt.Sprintf("%s: %s\n", role, preview(m.Content, historyPreview)))
		}
		history.WriteString("\n")
	}

	active := "none"
	if in.Active != nil {
		active = string(*in.Active)
	}

	return prompts.Render(prompts.RoutingFile, "user", map[string]string{
		"Message":        in.Text,
		"History":        history.String(),
		"UserContext":    in.User.Summary(),
		"ActiveWorkflow": active,
	})
}

// preview truncates s to n runes, marking the cut with "..."
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
