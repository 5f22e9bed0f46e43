package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/career-assistant/internal/config"
	"github.com/jonathan/career-assistant/internal/coordinator"
	"github.com/jonathan/career-assistant/internal/llm"
	"github.com/jonathan/career-assistant/internal/logging"
	"github.com/jonathan/career-assistant/internal/router"
	"github.com/jonathan/career-assistant/internal/session"
	"github.com/jonathan/career-assistant/internal/usercontext"
	"github.com/jonathan/career-assistant/internal/workflow"
)

// loadConfig reads and validates configuration, applying global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
}

// app holds the wired components shared by the commands
type app struct {
	coord   *coordinator.Coordinator
	engine  *workflow.Engine
	router  *router.Router
	closers []func() error
}

// Close releases connections in reverse order of creation
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildApp wires the coordinator from configuration. Without an API key the
// router falls back to keywords and direct replies use canned text.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	var client llm.Client
	if cfg.LLM.APIKey != "" {
		client, err = llm.NewClient(ctx, cfg.LLM.ModelConfig(), cfg.LLM.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
	} else {
		logger.Warn("no LLM API key configured; routing by keywords")
	}

	var (
		users usercontext.Provider
		jobs  workflow.JobLookup
	)
	if cfg.Database.URL != "" {
		pg, err := usercontext.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pg.Close(); return nil })
		users, jobs = pg, pg
	} else {
		static := usercontext.NewStaticProvider()
		users, jobs = static, static
	}

	var store session.Store
	switch cfg.Sessions.Backend {
	case config.BackendRedis:
		rc, err := session.Connect(ctx, cfg.Sessions.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rc.Close)
		store = session.NewRedisStore(rc, cfg.Sessions.KeyPrefix, cfg.Sessions.TTL)
	default:
		store = session.NewMemoryStore(cfg.Sessions.TTL, 0)
	}

	var source workflow.ItemSource = workflow.DemoSource{}
	if cfg.Workflows.ItemSource == config.ItemSourceGenerated && client != nil {
		source = workflow.NewGeneratedSource(client, cfg.LLM.GenerateTimeout, logger)
	}

	a.engine = workflow.NewEngine(logger, workflow.DefaultTemplates(source, jobs, logger)...)
	a.router = router.New(client, cfg.LLM.ClassifyTimeout, logger)

	var direct coordinator.DirectResponder = coordinator.StaticResponder{}
	if client != nil {
		direct = coordinator.NewLLMResponder(client, cfg.LLM.GenerateTimeout, logger)
	}

	a.coord, err = coordinator.New(coordinator.Deps{
		Store:          store,
		Engine:         a.engine,
		Router:         a.router,
		Direct:         direct,
		Users:          users,
		UserTimeout:    cfg.Database.FetchTimeout,
		Logger:         logger,
		SerializeTurns: cfg.Sessions.SerializeTurns,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
