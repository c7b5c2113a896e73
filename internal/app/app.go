package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/florianilch/credbridge/internal/bridge"
)

// App wires configuration into a single credential transfer pipeline run.
type App struct {
	cfg      *Config
	pipeline *bridge.Pipeline
	logger   *slog.Logger
}

// New creates a new App instance. No I/O is performed.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	source, err := cfg.Source.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create source store: %w", err)
	}

	output, err := cfg.Output.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create output store: %w", err)
	}

	logger := slog.Default().With("run_id", uuid.NewString())

	pipeline, err := bridge.New(
		bridge.Paths{
			ToolMarker:        cfg.Tool.MarkerPath,
			SourceCredentials: cfg.Source.File,
			Output:            cfg.Output.File,
		},
		bridge.WithSourceStore(source),
		bridge.WithOutputStore(output),
		bridge.WithRefresher(&bridge.CommandRefresher{
			Path:    cfg.Tool.Command,
			Args:    cfg.Tool.Args,
			Timeout: cfg.Tool.RefreshTimeout,
			Logger:  logger,
		}),
		bridge.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	return &App{
		cfg:      cfg,
		pipeline: pipeline,
		logger:   logger,
	}, nil
}

// Run executes the credential transfer pipeline once.
func (a *App) Run(ctx context.Context) bool {
	a.logger.InfoContext(ctx, "starting credential update process")
	return a.pipeline.Run(ctx)
}

// OutputLocation describes where credentials are written.
func (a *App) OutputLocation() string {
	return a.pipeline.OutputLocation()
}

// ReadOutput loads the credentials previously written by Run.
func (a *App) ReadOutput(ctx context.Context) (*bridge.TargetCredentials, error) {
	store, err := a.cfg.Output.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create output store: %w", err)
	}

	data, err := store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", store.Location(), err)
	}

	tokens, err := bridge.DecodeTarget(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", store.Location(), err)
	}

	return tokens, nil
}
