package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/jonathan/career-assistant/internal/coordinator"
	"github.com/jonathan/career-assistant/internal/workflow"
)

// ChatRequest is the body of POST /chat and POST /chat/stream
type ChatRequest struct {
	UserID  int64            `json:"user_id" validate:"required,gt=0"`
	Message string           `json:"message" validate:"required,max=4000"`
	Context map[string]any   `json:"context,omitempty"`
	History []HistoryMessage `json:"history,omitempty" validate:"max=50,dive"`
}

// HistoryMessage is one prior message supplied by the client
type HistoryMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ResetResponse is returned by DELETE /users/{id}/sessions
type ResetResponse struct {
	UserID          int64 `json:"user_id"`
	SessionsCleared int   `json:"sessions_cleared"`
}

// SessionsResponse is returned by GET /users/{id}/sessions
type SessionsResponse struct {
	UserID   int64                        `json:"user_id"`
	Sessions []coordinator.SessionSummary `json:"sessions"`
}

func (s *Server) decodeChat(r *http.Request) (coordinator.Turn, error) {
	var req ChatRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return coordinator.Turn{}, &ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	if err := s.validator.Struct(req); err != nil {
		return coordinator.Turn{}, validationError(err)
	}

	turn := coordinator.Turn{
		Text:    req.Message,
		UserID:  req.UserID,
		Context: req.Context,
	}
	for _, h := range req.History {
		turn.History = append(turn.History, workflow.Message{Role: workflow.Role(h.Role), Content: h.Content})
	}
	return turn, nil
}

// handleChat processes one turn and returns the result as JSON
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	turn, err := s.decodeChat(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if !s.allowTurn(w, turn.UserID) {
		return
	}

	res, err := s.coord.ProcessTurn(r.Context(), turn)
	if err != nil {
		s.logger.Error("turn failed", zap.Int64("user_id", turn.UserID), zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), "failed to process message")
		return
	}
	s.jsonResponse(w, http.StatusOK, res)
}

// handleChatStream processes one turn and reports it as route, message and
// complete events
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	turn, err := s.decodeChat(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if !s.allowTurn(w, turn.UserID) {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	res, err := s.coord.ProcessTurn(r.Context(), turn)
	if err != nil {
		s.logger.Error("turn failed", zap.Int64("user_id", turn.UserID), zap.Error(err))
		sse.WriteError("failed to process message")
		return
	}

	events := []struct {
		name string
		data any
	}{
		{EventRoute, map[string]any{
			"route":          res.Metadata["route"],
			"routing_source": res.Metadata["routing_source"],
			"workflow_kind":  res.WorkflowKind,
		}},
		{EventMessage, map[string]any{"response": res.Response}},
		{EventComplete, map[string]any{
			"completed":    res.Completed,
			"current_step": res.CurrentStep,
			"metadata":     res.Metadata,
		}},
	}
	for _, e := range events {
		if err := sse.WriteEvent(e.name, e.data); err != nil {
			s.logger.Warn("stream closed", zap.String("event", e.name), zap.Error(err))
			return
		}
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUserID(w, r)
	if !ok {
		return
	}
	sessions, err := s.coord.Sessions(r.Context(), userID)
	if err != nil {
		s.logger.Error("list sessions failed", zap.Int64("user_id", userID), zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), "failed to list sessions")
		return
	}
	s.jsonResponse(w, http.StatusOK, SessionsResponse{UserID: userID, Sessions: sessions})
}

func (s *Server) handleResetSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathUserID(w, r)
	if !ok {
		return
	}
	n, err := s.coord.Reset(r.Context(), userID)
	if err != nil {
		s.logger.Error("reset sessions failed", zap.Int64("user_id", userID), zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), "failed to reset sessions")
		return
	}
	s.jsonResponse(w, http.StatusOK, ResetResponse{UserID: userID, SessionsCleared: n})
}

func (s *Server) pathUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.errorResponse(w, http.StatusBadRequest, (&ErrValidation{Field: "id", Message: "must be a positive integer"}).Error())
		return 0, false
	}
	return id, true
}
