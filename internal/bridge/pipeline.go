package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/florianilch/credbridge/internal/credstore"
)

// Paths holds the fixed filesystem locations used by the pipeline.
type Paths struct {
	// ToolMarker is the file whose existence means the Claude CLI is installed.
	ToolMarker string
	// SourceCredentials is the Claude CLI credentials file.
	SourceCredentials string
	// Output is where the normalized credentials are written.
	Output string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSourceStore reads source credentials from store instead of Paths.SourceCredentials.
func WithSourceStore(store credstore.Store) Option {
	return func(p *Pipeline) {
		p.source = store
	}
}

// WithOutputStore writes credentials to store instead of Paths.Output.
func WithOutputStore(store credstore.Store) Option {
	return func(p *Pipeline) {
		p.output = store
	}
}

// WithRefresher replaces the default command refresher.
func WithRefresher(refresher Refresher) Option {
	return func(p *Pipeline) {
		p.refresher = refresher
	}
}

// WithLogger sets the logger for progress and diagnostics (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline transfers credentials from the Claude CLI to the output store.
// A Pipeline is meant for a single run and holds no state between steps.
type Pipeline struct {
	toolMarker string
	source     credstore.Store
	output     credstore.Store
	refresher  Refresher
	logger     *slog.Logger
}

// New creates a Pipeline. No I/O is performed.
// Stores not provided through options are file stores built from paths.
func New(paths Paths, opts ...Option) (*Pipeline, error) {
	if paths.ToolMarker == "" {
		return nil, fmt.Errorf("tool marker path cannot be empty")
	}

	p := &Pipeline{
		toolMarker: paths.ToolMarker,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.source == nil {
		store, err := credstore.NewFileStore(paths.SourceCredentials)
		if err != nil {
			return nil, fmt.Errorf("source store: %w", err)
		}
		p.source = store
	}
	if p.output == nil {
		store, err := credstore.NewFileStore(paths.Output)
		if err != nil {
			return nil, fmt.Errorf("output store: %w", err)
		}
		p.output = store
	}
	if p.refresher == nil {
		p.refresher = &CommandRefresher{
			Path:    paths.ToolMarker,
			Args:    DefaultRefreshArgs,
			Timeout: DefaultRefreshTimeout,
			Logger:  p.logger,
		}
	}

	return p, nil
}

// OutputLocation describes where credentials are written.
func (p *Pipeline) OutputLocation() string {
	return p.output.Location()
}

// IsToolInstalled reports whether the tool marker file exists.
func (p *Pipeline) IsToolInstalled() bool {
	_, err := os.Stat(p.toolMarker)
	return err == nil
}

// SourceExists reports whether the source credentials are present and readable.
func (p *Pipeline) SourceExists(ctx context.Context) bool {
	return p.source.Exists(ctx)
}

// InvokeRefresh asks the external tool to refresh its credentials.
// Only a failure to start the refresh is reported as false.
func (p *Pipeline) InvokeRefresh(ctx context.Context) bool {
	p.logger.InfoContext(ctx, "executing claude command to refresh credentials")

	if err := p.refresher.Refresh(ctx); err != nil {
		p.logger.ErrorContext(ctx, "error setting up claude command", "error", err, failureKey, FailureInvocation)
		return false
	}

	p.logger.InfoContext(ctx, "claude command executed")
	return true
}

// ReadSource reads and parses the source credentials. Returns nil on any
// read or parse error after logging it.
func (p *Pipeline) ReadSource(ctx context.Context) *SourceCredentials {
	data, err := p.source.Read(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "error reading claude credentials", "error", err, failureKey, FailureRead)
		return nil
	}

	src, err := DecodeSource(data)
	if err != nil {
		p.logger.ErrorContext(ctx, "error reading claude credentials", "error", err, failureKey, FailureRead)
		return nil
	}

	return src
}

// Persist writes tokens to the output store in the credentials.json layout.
// Returns false after logging if encoding or writing fails.
func (p *Pipeline) Persist(ctx context.Context, tokens TargetCredentials) bool {
	data, err := EncodeTarget(tokens)
	if err == nil {
		err = p.output.Write(ctx, data)
	}
	if err != nil {
		// Consumers match on this prefix
		p.logger.ErrorContext(ctx, "Error saving credentials: "+err.Error(), "location", p.output.Location(), failureKey, FailureWrite)
		return false
	}

	return true
}

// Run executes all steps in order and stops at the first failure.
func (p *Pipeline) Run(ctx context.Context) bool {
	p.logger.InfoContext(ctx, "checking prerequisites")

	if !p.IsToolInstalled() {
		p.fail(ctx, FailureMissingDependency, "claude command is not installed", "marker", p.toolMarker)
		return false
	}

	if !p.SourceExists(ctx) {
		p.fail(ctx, FailureMissingSource, "claude credentials not found", "location", p.source.Location())
		return false
	}

	p.logger.InfoContext(ctx, "prerequisites met")

	if !p.InvokeRefresh(ctx) {
		p.fail(ctx, FailureInvocation, "failed to execute claude command")
		return false
	}

	p.logger.InfoContext(ctx, "reading claude credentials", "location", p.source.Location())
	src := p.ReadSource(ctx)
	if src == nil {
		p.fail(ctx, FailureRead, "failed to read claude credentials")
		return false
	}

	tokens := NewTargetCredentials(*src)

	p.logger.InfoContext(ctx, "updating github credentials",
		"location", p.output.Location(),
		"is_max", tokens.IsMax,
		"expiry", tokens.Token().Expiry,
	)
	return p.Persist(ctx, tokens)
}

func (p *Pipeline) fail(ctx context.Context, kind FailureKind, msg string, args ...any) {
	p.logger.ErrorContext(ctx, msg, append([]any{failureKey, kind}, args...)...)
}
