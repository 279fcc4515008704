package gesture

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Dispatcher resolves gestures against the action tables and executes
// them through an Injector. Every call is independent; there is no
// retry and no state beyond the caller-supplied document type.
type Dispatcher struct {
	injector Injector
	timeout  time.Duration
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher. Each dispatched action is bounded
// by the given timeout so a stuck automation call cannot stall the
// calling request indefinitely.
func NewDispatcher(injector Injector, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		injector: injector,
		timeout:  timeout,
		logger:   logger,
	}
}

// Dispatch executes the action for a (document type, gesture) pair.
// Returns ErrMissingContext when no document type is set and
// ErrUnsupportedGesture when the pair has no action; injector failures
// are returned wrapped with the underlying message.
func (d *Dispatcher) Dispatch(ctx context.Context, documentType, gestureName string) error {
	if documentType == "" || gestureName == "" {
		return ErrMissingContext
	}

	action, ok := Lookup(documentType, gestureName)
	if !ok {
		return ErrUnsupportedGesture
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.logger.Info("dispatching gesture",
		zap.String("document_type", documentType),
		zap.String("gesture", gestureName),
	)

	if err := d.perform(ctx, documentType, action); err != nil {
		return fmt.Errorf("gesture action failed: %w", err)
	}
	return nil
}

// perform executes a single action. Paging keys differ by document
// type: word documents page with PageUp/PageDown, pdf and ppt viewers
// use the arrow keys.
func (d *Dispatcher) perform(ctx context.Context, documentType string, action Action) error {
	switch action {
	case ZoomIn:
		return d.injector.Hotkey(ctx, "ctrl", "plus")
	case ZoomOut:
		return d.injector.Hotkey(ctx, "ctrl", "minus")
	case ScrollUp:
		return d.injector.Scroll(ctx, 100)
	case ScrollDown:
		return d.injector.Scroll(ctx, -100)
	case PrevPage:
		if documentType == "doc" {
			return d.injector.Press(ctx, "Prior")
		}
		return d.injector.Press(ctx, "Left")
	case NextPage:
		if documentType == "doc" {
			return d.injector.Press(ctx, "Next")
		}
		return d.injector.Press(ctx, "Right")
	default:
		return fmt.Errorf("unknown action %d", action)
	}
}
