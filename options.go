package permit

import "github.com/oarkflow/permit/logger"

// Option configures a Gate during construction.
type Option[S, R any] func(*Gate[S, R]) error

// WithLogger installs a structured logger on the gate. Decisions are logged
// at debug level; logging never alters control flow.
func WithLogger[S, R any](l logger.Logger) Option[S, R] {
	return func(g *Gate[S, R]) error {
		if l == nil {
			l = logger.NewNullLogger()
		}
		g.logger = l
		return nil
	}
}

// WithAudit records every allow/deny decision to sink on a background
// worker. Events are dropped (and counted in the log) rather than blocking
// the authorization path when the buffer is full. Evaluation and loader
// failures are not decisions and are not recorded.
func WithAudit[S, R any](sink Sink, buffer int) Option[S, R] {
	return func(g *Gate[S, R]) error {
		if sink == nil {
			return ErrNilAuditSink
		}
		g.audit = newAuditor(sink, buffer, g.logger)
		return nil
	}
}
