package engine

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrConcurrentOperation is returned when a full-file play is attempted
// while another playback is already active.
var ErrConcurrentOperation = errors.New("engine: another playback is already active")

// EngineError reports a lifecycle-state violation: wrong state for the
// attempted operation, double-initialize, or an operation attempted
// after close.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string { return fmt.Sprintf("engine: %s: %v", e.Op, e.Err) }
func (e *EngineError) Unwrap() error { return e.Err }

// ErrorHandler is the engine's pluggable error-reporting boundary,
// generalized from the facade's native error-handler hook: components
// that recover from an error (rather than returning it) still give the
// caller a chance to observe it.
type ErrorHandler interface {
	HandleError(error)
}

// SlogErrorHandler reports errors through a structured logger at WARN.
type SlogErrorHandler struct {
	Logger *slog.Logger
}

// HandleError implements ErrorHandler.
func (h *SlogErrorHandler) HandleError(err error) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("engine error", "error", err)
}

// ChainErrorHandler reports to an underlying handler after running its
// own logger callback, letting callers compose handlers (e.g. metrics
// plus logging) without replacing one another.
type ChainErrorHandler struct {
	Underlying ErrorHandler
	Report     func(error)
}

// HandleError implements ErrorHandler.
func (h *ChainErrorHandler) HandleError(err error) {
	if h.Report != nil {
		h.Report(err)
	}
	if h.Underlying != nil {
		h.Underlying.HandleError(err)
	}
}

// PanicErrorHandler panics on any reported error; useful for tests and
// development builds that want to fail loudly.
type PanicErrorHandler struct{}

// HandleError implements ErrorHandler.
func (*PanicErrorHandler) HandleError(err error) {
	panic(fmt.Sprintf("engine error: %v", err))
}
