package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"golang.org/x/term"
)

// DefaultRefreshTimeout bounds a single refresh command run.
const DefaultRefreshTimeout = 30 * time.Second

// DefaultRefreshArgs makes the Claude CLI run a trivial prompt, which loads
// and refreshes its stored OAuth credentials as a side effect.
var DefaultRefreshArgs = []string{"-p", "! pwd"}

// Refresher triggers a credential refresh in the external tool.
type Refresher interface {
	// Refresh returns an error only if the refresh could not be started.
	Refresh(ctx context.Context) error
}

// CommandRefresher runs an external command with inherited standard streams.
type CommandRefresher struct {
	Path    string
	Args    []string
	Timeout time.Duration

	// Standard streams, defaulting to the process' own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Logger *slog.Logger
}

// Compile-time check to ensure CommandRefresher implements Refresher
var _ Refresher = (*CommandRefresher)(nil)

// Refresh runs the command and waits for it to exit or time out.
// Exit status and timeouts are logged but not reported as errors.
func (r *CommandRefresher) Refresh(ctx context.Context) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.Path, r.Args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	// Bounds the wait for copied output after the process is killed
	cmd.WaitDelay = time.Second

	if !isTerminal(cmd.Stdin) {
		logger.DebugContext(ctx, "refresh command running non-interactively", "command", r.Path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", r.Path, err)
	}

	err := cmd.Wait()
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		logger.WarnContext(ctx, "refresh command timed out", "command", r.Path, "timeout", timeout)
	case err != nil:
		logger.WarnContext(ctx, "refresh command exited with error", "command", r.Path, "error", err)
	default:
		logger.DebugContext(ctx, "refresh command finished", "command", r.Path)
	}

	return nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
