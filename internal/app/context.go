// Package app opens a workspace: database, migrations, configuration,
// generator and a loaded engine session.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"architect/internal/config"
	"architect/internal/db"
	"architect/internal/engine"
	"architect/internal/generator"
	"architect/internal/metrics"
	"architect/internal/migrate"
	"architect/internal/repo"
)

type Options struct {
	Workspace string
	Config    *config.Config
	// Generator overrides the configured provider.
	Generator generator.Generator
	Logger    *slog.Logger
	Now       func() time.Time
}

// Workspace is an open session bound to its database.
type Workspace struct {
	Path    string
	DB      *sql.DB
	Repo    repo.Repo
	Config  *config.Config
	Engine  *engine.Engine
	Metrics *metrics.Metrics
}

// Open migrates the workspace database and loads the session from it.
func Open(ctx context.Context, opts Options) (*Workspace, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		cfg, err = config.LoadOptional(opts.Workspace)
		if err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := db.Open(db.Config{Workspace: opts.Workspace})
	if err != nil {
		return nil, err
	}
	version, err := migrate.Migrate(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Debug("workspace opened", "path", db.Path(opts.Workspace), "schema_version", version)

	gen := opts.Generator
	if gen == nil {
		gen, err = NewGenerator(cfg, logger)
		if err != nil {
			conn.Close()
			return nil, err
		}
	}
	r := repo.New(conn)
	if opts.Now != nil {
		r.Now = opts.Now
	}
	m := metrics.New()
	eng := engine.New(engine.Options{
		Store:     r,
		Generator: gen,
		Config:    cfg,
		Metrics:   m,
		Logger:    logger,
		Now:       opts.Now,
	})
	if err := eng.Load(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return &Workspace{
		Path:    opts.Workspace,
		DB:      conn,
		Repo:    r,
		Config:  cfg,
		Engine:  eng,
		Metrics: m,
	}, nil
}

// NewGenerator builds the configured generator. The API key is read from the
// environment variable named in the config.
func NewGenerator(cfg *config.Config, logger *slog.Logger) (generator.Generator, error) {
	switch cfg.Generator.Provider {
	case "gemini":
		key := os.Getenv(cfg.Generator.APIKeyEnv)
		g, err := generator.NewGemini(cfg.Generator, key,
			generator.WithLogger(logger.With("component", "generator")),
			generator.WithScoring(cfg.Scoring.Weights, cfg.Scoring.Threshold))
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Generator.Provider)
	}
}

// Close ends the session and releases the database.
func (w *Workspace) Close() error {
	_ = w.Engine.Close()
	return w.DB.Close()
}
