package workflow

import (
	"strings"
	"time"
)

// Role of a message author
type Role string

// Message roles
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StepComplete is the CurrentStep of a finished workflow
const StepComplete = "complete"

// Message is one entry in a workflow's conversation log
type Message struct {
	Role     Role           `json:"role"`
	Content  string         `json:"content"`
	Workflow Kind           `json:"workflow,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Item is one unit a workflow walks the user through: a skill gap, a resume
// section. Fields that do not apply to a workflow stay empty.
type Item struct {
	Title        string   `json:"title"`
	Severity     string   `json:"severity,omitempty"`
	Importance   string   `json:"importance,omitempty"`
	CurrentLevel string   `json:"current_level,omitempty"`
	TargetLevel  string   `json:"target_level,omitempty"`
	Detail       string   `json:"detail,omitempty"`
	Suggestions  []string `json:"suggestions,omitempty"`
}

// SuggestionList joins the suggestions for display
func (i Item) SuggestionList() string {
	return strings.Join(i.Suggestions, ", ")
}

// State is the persisted snapshot of one user's progress in one workflow.
//
// CurrentIndex is the 0-based index of the item awaiting the user's reply;
// CurrentIndex == TotalCount means every item has been answered.
type State struct {
	UserID       int64             `json:"user_id"`
	Kind         Kind              `json:"kind"`
	Messages     []Message         `json:"messages"`
	Items        []Item            `json:"items"`
	Facts        map[string]string `json:"facts,omitempty"`
	CurrentIndex int               `json:"current_index"`
	TotalCount   int               `json:"total_count"`
	Completed    bool              `json:"completed"`
	CurrentStep  string            `json:"current_step"`
	JobPostingID *int64            `json:"job_posting_id,omitempty"`
	StartedAt    time.Time         `json:"started_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Clone returns a deep copy of the state
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s

	if s.Messages != nil {
		out.Messages = make([]Message, len(s.Messages))
		for i, m := range s.Messages {
			out.Messages[i] = m
			if m.Metadata != nil {
				out.Messages[i].Metadata = make(map[string]any, len(m.Metadata))
				for k, v := range m.Metadata {
					out.Messages[i].Metadata[k] = v
				}
			}
		}
	}

	out.Items = cloneItems(s.Items)

	if s.Facts != nil {
		out.Facts = make(map[string]string, len(s.Facts))
		for k, v := range s.Facts {
			out.Facts[k] = v
		}
	}

	if s.JobPostingID != nil {
		id := *s.JobPostingID
		out.JobPostingID = &id
	}

	return &out
}

// LastAssistantMessage returns the most recent assistant message
func (s *State) LastAssistantMessage() (Message, bool) {
	if s == nil {
		return Message{}, false
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// Fact returns a fact value or "" when absent
func (s *State) Fact(key string) string {
	if s == nil || s.Facts == nil {
		return ""
	}
	return s.Facts[key]
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it
		if it.Suggestions != nil {
			out[i].Suggestions = append([]string(nil), it.Suggestions...)
		}
	}
	return out
}
