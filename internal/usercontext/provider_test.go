package usercontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider_Fetch(t *testing.T) {
	p := NewStaticProvider()
	p.SetContext(&UserContext{UserID: 7, HasProfile: true, ResumeCount: 2})

	uc, err := p.Fetch(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, uc.HasProfile)
	assert.Equal(t, 2, uc.ResumeCount)

	// mutating the returned copy does not leak back
	uc.ResumeCount = 99
	again, _ := p.Fetch(context.Background(), 7)
	assert.Equal(t, 2, again.ResumeCount)
}

func TestStaticProvider_FetchUnknownUser(t *testing.T) {
	uc, err := NewStaticProvider().Fetch(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), uc.UserID)
	assert.False(t, uc.HasProfile)
	assert.Zero(t, uc.ResumeCount)
}

func TestStaticProvider_JobPosting(t *testing.T) {
	p := NewStaticProvider()
	p.AddJobPosting(&JobPosting{ID: 12, Title: "Platform Engineer", Company: "Acme"})
	p.AddJobPosting(&JobPosting{ID: 3, Title: "SRE", Company: "Initech"})

	jp, err := p.JobPosting(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "Acme", jp.Company)

	missing, err := p.JobPosting(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Equal(t, []int64{3, 12}, p.JobPostingIDs())
}

func TestUserContext_Summary(t *testing.T) {
	var nilCtx *UserContext
	assert.Equal(t, "has_profile: false, resume_count: 0", nilCtx.Summary())

	uc := &UserContext{HasProfile: true, ResumeCount: 3}
	assert.Equal(t, "has_profile: true, resume_count: 3", uc.Summary())
	assert.Equal(t, map[string]any{"has_profile": true, "resume_count": 3}, uc.Map())
}
