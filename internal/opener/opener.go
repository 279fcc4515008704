// Package opener launches documents in a desktop application on the
// machine the server runs on. This only makes sense when the server and
// the viewing workstation are the same machine; the behavior is kept
// behind an interface so everything above it stays testable.
package opener

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Opener opens a file in the host's default application for its type
type Opener interface {
	Open(ctx context.Context, path string) error
}

// ExecOpener shells out to the platform opener command. Every launch is
// bounded by a timeout so a wedged desktop application cannot stall the
// calling request forever.
type ExecOpener struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewExecOpener creates an ExecOpener with the given per-call timeout
func NewExecOpener(timeout time.Duration, logger *zap.Logger) *ExecOpener {
	return &ExecOpener{
		timeout: timeout,
		logger:  logger,
	}
}

// Open launches the file in the host's default application
func (o *ExecOpener) Open(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.CommandContext(ctx, "cmd", "/c", "start", "", path)
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", path)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", path)
	}

	o.logger.Info("opening document on host",
		zap.String("path", path),
		zap.String("os", runtime.GOOS),
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to open document on host: %s: %w", string(out), err)
	}
	return nil
}
