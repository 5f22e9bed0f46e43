// Package coordinator runs one conversational turn end to end: escape
// handling, routing, session cleanup, workflow execution and persistence.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/jonathan/career-assistant/internal/escape"
	"github.com/jonathan/career-assistant/internal/prompts"
	"github.com/jonathan/career-assistant/internal/router"
	"github.com/jonathan/career-assistant/internal/session"
	"github.com/jonathan/career-assistant/internal/usercontext"
	"github.com/jonathan/career-assistant/internal/workflow"
)

const tracerName = "github.com/jonathan/career-assistant/internal/coordinator"

// CurrentStep values for turns that do not run a workflow step
const (
	StepEscaped        = "escaped"
	StepDirectResponse = "direct_response"
	StepError          = "error"
	StepNeedsContext   = "needs_context"
)

// DefaultUserTimeout bounds the user context lookup when Deps.UserTimeout is zero
const DefaultUserTimeout = 2 * time.Second

// ErrInvalidUserID is returned for a non-positive user id
var ErrInvalidUserID = errors.New("user id must be positive")

// Turn is one inbound user message
type Turn struct {
	Text    string
	UserID  int64
	Context map[string]any
	// History is prior conversation supplied by the caller; when empty the
	// active session's messages are used for routing. Direct responses only
	// ever see this caller-supplied history.
	History []workflow.Message
}

// Result is the response to a turn
type Result struct {
	Response     string         `json:"response"`
	WorkflowKind *workflow.Kind `json:"workflow_kind"`
	Completed    bool           `json:"completed"`
	CurrentStep  string         `json:"current_step"`
	Metadata     map[string]any `json:"metadata"`
}

// SessionSummary describes a stored session without its messages
type SessionSummary struct {
	Kind         workflow.Kind `json:"kind"`
	CurrentStep  string        `json:"current_step"`
	CurrentIndex int           `json:"current_index"`
	TotalCount   int           `json:"total_count"`
	Completed    bool          `json:"completed"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Deps wires a Coordinator. Store, Engine and Router are required.
type Deps struct {
	Store  session.Store
	Engine *workflow.Engine
	Router *router.Router
	Direct DirectResponder
	Users  usercontext.Provider
	// UserTimeout bounds Users.Fetch; a slow lookup is treated as missing
	// user context.
	UserTimeout time.Duration
	Logger      *zap.Logger
	Tracer      trace.Tracer
	// SerializeTurns makes concurrent turns of the same user run one at a
	// time. When false, two concurrent turns may read the same state and the
	// last write wins.
	SerializeTurns bool
}

// Coordinator processes turns
type Coordinator struct {
	store  session.Store
	engine *workflow.Engine
	router *router.Router
	direct DirectResponder
	users  usercontext.Provider
	logger *zap.Logger
	tracer trace.Tracer
	locker *session.Locker
	newID  func() string

	userTimeout time.Duration
}

// New creates a Coordinator
func New(d Deps) (*Coordinator, error) {
	if d.Store == nil || d.Engine == nil || d.Router == nil {
		return nil, fmt.Errorf("coordinator requires a store, an engine and a router")
	}
	if d.Direct == nil {
		d.Direct = StaticResponder{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Tracer == nil {
		d.Tracer = otel.Tracer(tracerName)
	}
	if d.UserTimeout <= 0 {
		d.UserTimeout = DefaultUserTimeout
	}

	c := &Coordinator{
		store:  d.Store,
		engine: d.Engine,
		router: d.Router,
		direct: d.Direct,
		users:  d.Users,
		logger: d.Logger.Named("coordinator"),
		tracer: d.Tracer,
		newID:  uuid.NewString,

		userTimeout: d.UserTimeout,
	}
	if d.SerializeTurns {
		c.locker = session.NewLocker()
	}
	return c, nil
}

// ProcessTurn handles one user message. Errors are returned only for invalid
// input and session store failures; workflow failures become a generic
// user-facing message.
func (c *Coordinator) ProcessTurn(ctx context.Context, t Turn) (*Result, error) {
	if t.UserID <= 0 {
		return nil, ErrInvalidUserID
	}

	turnID := c.newID()
	ctx, span := c.tracer.Start(ctx, "coordinator.ProcessTurn", trace.WithAttributes(
		attribute.Int64("user.id", t.UserID),
		attribute.String("turn.id", turnID),
	))
	defer span.End()

	log := c.logger.With(zap.String("turn_id", turnID), zap.Int64("user_id", t.UserID))

	if c.locker != nil {
		unlock := c.locker.Lock(t.UserID)
		defer unlock()
	}

	if escape.Detect(t.Text) {
		n, err := c.store.DeleteUser(ctx, t.UserID)
		if err != nil {
			return nil, c.storeFailure(span, "clear sessions", err)
		}
		log.Info("workflow escaped", zap.Int("sessions_cleared", n))
		span.SetAttributes(attribute.String("turn.outcome", StepEscaped))
		return &Result{
			Response:    prompts.MustGet(prompts.ResponsesFile, "escaped"),
			Completed:   true,
			CurrentStep: StepEscaped,
			Metadata: map[string]any{
				"action":           "workflow_escaped",
				"sessions_cleared": n,
				"turn_id":          turnID,
			},
		}, nil
	}

	user := c.fetchUser(ctx, t.UserID, log)

	states, err := c.loadSessions(ctx, t.UserID)
	if err != nil {
		return nil, c.storeFailure(span, "load sessions", err)
	}
	active := mostRecentActive(states)

	history := t.History
	var activeKind *workflow.Kind
	if active != nil {
		activeKind = active.Kind.Ptr()
		if len(history) == 0 {
			history = active.Messages
		}
	}

	decision := c.router.Decide(ctx, router.Input{
		Text:    t.Text,
		History: history,
		User:    user,
		Active:  activeKind,
	})
	span.SetAttributes(
		attribute.String("turn.route", string(decision.Route)),
		attribute.String("turn.route_source", decision.Source),
	)
	log = log.With(zap.String("route", string(decision.Route)))

	kind, isWorkflow := decision.Route.Kind()

	// Only the routed workflow's session survives a turn
	for k := range states {
		if isWorkflow && k == kind {
			continue
		}
		if err := c.store.Delete(ctx, session.Key{UserID: t.UserID, Kind: k}); err != nil {
			return nil, c.storeFailure(span, "drop stale session", err)
		}
		log.Debug("dropped session", zap.String("kind", string(k)))
	}

	baseMeta := map[string]any{
		"route":          string(decision.Route),
		"routing_source": decision.Source,
		"turn_id":        turnID,
		"user_context":   user.Map(),
	}

	if !isWorkflow {
		return c.respondDirect(ctx, t, user, baseMeta, log), nil
	}

	key := session.Key{UserID: t.UserID, Kind: kind}
	prev := states[kind]
	if prev != nil && prev.Completed {
		if err := c.store.Delete(ctx, key); err != nil {
			return nil, c.storeFailure(span, "drop completed session", err)
		}
		prev = nil
	}

	st, err := c.engine.Run(ctx, kind, prev, workflow.Input{
		UserID:  t.UserID,
		Text:    t.Text,
		Context: t.Context,
		User:    user,
	})
	if err != nil {
		var mce *workflow.MissingContextError
		if errors.As(err, &mce) {
			log.Info("workflow needs context", zap.String("field", mce.Field))
			span.SetAttributes(attribute.String("turn.outcome", StepNeedsContext))
			baseMeta["action"] = "needs_context"
			baseMeta["missing"] = mce.Field
			return &Result{
				Response:     mce.Message,
				WorkflowKind: kind.Ptr(),
				Completed:    true,
				CurrentStep:  StepNeedsContext,
				Metadata:     baseMeta,
			}, nil
		}

		log.Error("workflow step failed", zap.String("kind", string(kind)), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "workflow step failed")
		if derr := c.store.Delete(ctx, key); derr != nil {
			log.Error("failed to drop session after step failure", zap.Error(derr))
		}
		baseMeta["action"] = "workflow_error"
		return &Result{
			Response:     prompts.MustGet(prompts.ResponsesFile, "step-error"),
			WorkflowKind: kind.Ptr(),
			Completed:    true,
			CurrentStep:  StepError,
			Metadata:     baseMeta,
		}, nil
	}

	if err := c.store.Put(ctx, key, st); err != nil {
		return nil, c.storeFailure(span, "save session", err)
	}

	msg, _ := st.LastAssistantMessage()
	meta := make(map[string]any, len(msg.Metadata)+len(baseMeta)+3)
	for k, v := range msg.Metadata {
		meta[k] = v
	}
	for k, v := range baseMeta {
		meta[k] = v
	}
	meta["current_index"] = st.CurrentIndex
	meta["total_items"] = st.TotalCount
	if st.JobPostingID != nil {
		meta["job_posting_id"] = *st.JobPostingID
	}

	span.SetAttributes(
		attribute.String("workflow.kind", string(kind)),
		attribute.String("workflow.step", st.CurrentStep),
		attribute.Bool("workflow.completed", st.Completed),
	)
	log.Info("workflow turn",
		zap.String("kind", string(kind)),
		zap.String("current_step", st.CurrentStep),
		zap.Int("current_index", st.CurrentIndex),
		zap.Int("total_count", st.TotalCount),
		zap.Bool("completed", st.Completed))

	return &Result{
		Response:     msg.Content,
		WorkflowKind: kind.Ptr(),
		Completed:    st.Completed,
		CurrentStep:  st.CurrentStep,
		Metadata:     meta,
	}, nil
}

func (c *Coordinator) respondDirect(ctx context.Context, t Turn, user *usercontext.UserContext, meta map[string]any, log *zap.Logger) *Result {
	text, err := c.direct.Respond(ctx, DirectRequest{Text: t.Text, History: t.History, User: user})
	if err != nil || text == "" {
		if err != nil {
			log.Warn("direct response failed", zap.Error(err))
		}
		text = prompts.MustGet(prompts.ResponsesFile, "direct-fallback")
	}
	meta["action"] = "direct_response"
	return &Result{
		Response:    text,
		Completed:   true,
		CurrentStep: StepDirectResponse,
		Metadata:    meta,
	}
}

// Reset deletes every session of a user
func (c *Coordinator) Reset(ctx context.Context, userID int64) (int, error) {
	if userID <= 0 {
		return 0, ErrInvalidUserID
	}
	return c.store.DeleteUser(ctx, userID)
}

// Sessions lists a user's stored sessions
func (c *Coordinator) Sessions(ctx context.Context, userID int64) ([]SessionSummary, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}
	keys, err := c.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]SessionSummary, 0, len(keys))
	for _, k := range keys {
		st, ok, err := c.store.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, SessionSummary{
			Kind:         st.Kind,
			CurrentStep:  st.CurrentStep,
			CurrentIndex: st.CurrentIndex,
			TotalCount:   st.TotalCount,
			Completed:    st.Completed,
			UpdatedAt:    st.UpdatedAt,
		})
	}
	return out, nil
}

func (c *Coordinator) fetchUser(ctx context.Context, userID int64, log *zap.Logger) *usercontext.UserContext {
	if c.users == nil {
		return &usercontext.UserContext{UserID: userID}
	}
	ctx, cancel := context.WithTimeout(ctx, c.userTimeout)
	defer cancel()

	uc, err := c.users.Fetch(ctx, userID)
	if err != nil || uc == nil {
		if err != nil {
			log.Warn("user context unavailable", zap.Error(err))
		}
		return &usercontext.UserContext{UserID: userID}
	}
	return uc
}

func (c *Coordinator) loadSessions(ctx context.Context, userID int64) (map[workflow.Kind]*workflow.State, error) {
	keys, err := c.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	states := make(map[workflow.Kind]*workflow.State, len(keys))
	for _, k := range keys {
		st, ok, err := c.store.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if ok {
			states[k.Kind] = st
		}
	}
	return states, nil
}

// mostRecentActive picks the unfinished session updated last
func mostRecentActive(states map[workflow.Kind]*workflow.State) *workflow.State {
	var active *workflow.State
	for _, st := range states {
		if st.Completed {
			continue
		}
		if active == nil || st.UpdatedAt.After(active.UpdatedAt) ||
			(st.UpdatedAt.Equal(active.UpdatedAt) && st.Kind < active.Kind) {
			active = st
		}
	}
	return active
}

func (c *Coordinator) storeFailure(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op)
	c.logger.Error("session store failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}
