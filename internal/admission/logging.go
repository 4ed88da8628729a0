package admission

import (
	"log/slog"
	"time"
)

// PipelineLogger observes requests passing through the chain. It is never a
// gate: it cannot alter headers or outcomes, and its entry hook runs as a
// filter purely so it sits at the right point in the order.
type PipelineLogger struct {
	logger *slog.Logger
}

// NewPipelineLogger creates the observer.
func NewPipelineLogger(logger *slog.Logger) *PipelineLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineLogger{logger: logger}
}

func (l *PipelineLogger) Name() string { return "pipeline-logger" }

func (l *PipelineLogger) Order() int { return -2 }

// Apply records request entry and always continues.
func (l *PipelineLogger) Apply(req *RequestContext) Outcome {
	l.logger.Info("incoming request",
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.String("remote_addr", req.RemoteAddr),
		slog.String("user_agent", req.HeaderValue("User-Agent")),
		slog.String("content_type", req.HeaderValue("Content-Type")),
	)
	return Continue()
}

// Completed records the final status and elapsed time. It fires for every
// request, including ones the chain halted before reaching this filter's
// entry hook.
func (l *PipelineLogger) Completed(req *RequestContext, status int, elapsed time.Duration) {
	l.logger.Info("request completed",
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.Int("status", status),
		slog.Duration("duration", elapsed),
	)
}

// Failed records a filter-raised or backend error with elapsed time.
func (l *PipelineLogger) Failed(req *RequestContext, message string, elapsed time.Duration) {
	l.logger.Error("request failed",
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.String("error", message),
		slog.Duration("duration", elapsed),
	)
}
