// Package usercontext supplies the facts about a user that routing and
// workflows consult: whether a profile exists, how many resumes are on file,
// and job postings referenced by id.
package usercontext

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Profile holds the career facts used by profile-based workflows
type Profile struct {
	Name            string   `json:"name,omitempty"`
	Headline        string   `json:"headline,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	YearsExperience int      `json:"years_experience"`
	Education       string   `json:"education,omitempty"`
	Strengths       []string `json:"strengths,omitempty"`
}

// UserContext is the per-turn snapshot of what is known about a user
type UserContext struct {
	UserID      int64    `json:"user_id"`
	HasProfile  bool     `json:"has_profile"`
	ResumeCount int      `json:"resume_count"`
	Profile     *Profile `json:"profile,omitempty"`
}

// JobPosting identifies a posting a user asked to be compared against
type JobPosting struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Company string `json:"company"`
}

// Provider fetches user context. Implementations return (nil, nil) from
// JobPosting when the posting does not exist.
type Provider interface {
	Fetch(ctx context.Context, userID int64) (*UserContext, error)
	JobPosting(ctx context.Context, id int64) (*JobPosting, error)
}

// Summary renders the context the way the routing prompt expects it
func (uc *UserContext) Summary() string {
	if uc == nil {
		return "has_profile: false, resume_count: 0"
	}
	return fmt.Sprintf("has_profile: %t, resume_count: %d", uc.HasProfile, uc.ResumeCount)
}

// Map returns the context as a plain map for response metadata
func (uc *UserContext) Map() map[string]any {
	if uc == nil {
		return map[string]any{"has_profile": false, "resume_count": 0}
	}
	return map[string]any{
		"has_profile":  uc.HasProfile,
		"resume_count": uc.ResumeCount,
	}
}

// StaticProvider serves fixed data; used in tests and when no database is configured
type StaticProvider struct {
	mu       sync.RWMutex
	contexts map[int64]*UserContext
	postings map[int64]*JobPosting
}

// NewStaticProvider creates an empty StaticProvider
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		contexts: make(map[int64]*UserContext),
		postings: make(map[int64]*JobPosting),
	}
}

// SetContext registers the context returned for a user
func (p *StaticProvider) SetContext(uc *UserContext) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.contexts[uc.UserID] = uc
}

// AddJobPosting registers a job posting
func (p *StaticProvider) AddJobPosting(jp *JobPosting) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.postings[jp.ID] = jp
}

// Fetch returns the registered context, or an empty context for unknown users
func (p *StaticProvider) Fetch(_ context.Context, userID int64) (*UserContext, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if uc, ok := p.contexts[userID]; ok {
		out := *uc
		return &out, nil
	}
	return &UserContext{UserID: userID}, nil
}

// JobPosting returns the registered posting or nil
func (p *StaticProvider) JobPosting(_ context.Context, id int64) (*JobPosting, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if jp, ok := p.postings[id]; ok {
		out := *jp
		return &out, nil
	}
	return nil, nil
}

// JobPostingIDs lists registered posting ids in ascending order
func (p *StaticProvider) JobPostingIDs() []int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]int64, 0, len(p.postings))
	for id := range p.postings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
