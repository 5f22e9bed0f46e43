package usercontext

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// PostgresProvider reads user context from the application database.
// Profile and resume lookups run concurrently.
type PostgresProvider struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool and verifies it
func Connect(ctx context.Context, databaseURL string) (*PostgresProvider, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresProvider{pool: pool}, nil
}

// NewPostgresProvider wraps an existing pool
func NewPostgresProvider(pool *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{pool: pool}
}

// Close closes the connection pool
func (p *PostgresProvider) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Fetch loads the profile and resume count for a user
func (p *PostgresProvider) Fetch(ctx context.Context, userID int64) (*UserContext, error) {
	uc := &UserContext{UserID: userID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile, err := p.profile(gctx, userID)
		if err != nil {
			return err
		}
		uc.Profile = profile
		uc.HasProfile = profile != nil
		return nil
	})
	g.Go(func() error {
		var count int
		err := p.pool.QueryRow(gctx,
			`SELECT COUNT(*) FROM resumes WHERE user_id = $1`, userID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count resumes: %w", err)
		}
		uc.ResumeCount = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return uc, nil
}

func (p *PostgresProvider) profile(ctx context.Context, userID int64) (*Profile, error) {
	var profile Profile
	err := p.pool.QueryRow(ctx,
		`SELECT name, headline, skills, years_experience, education, strengths
		 FROM user_profiles WHERE user_id = $1`,
		userID,
	).Scan(&profile.Name, &profile.Headline, &profile.Skills,
		&profile.YearsExperience, &profile.Education, &profile.Strengths)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// JobPosting loads a job posting by id
func (p *PostgresProvider) JobPosting(ctx context.Context, id int64) (*JobPosting, error) {
	var jp JobPosting
	err := p.pool.QueryRow(ctx,
		`SELECT id, role_title, company_name FROM job_postings WHERE id = $1`,
		id,
	).Scan(&jp.ID, &jp.Title, &jp.Company)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}
	return &jp, nil
}
