package permit

import (
	"context"
	"errors"

	"github.com/oarkflow/permit/logger"
)

// ============================================================================
// AUTHORIZATION GATE
// ============================================================================

// IdentityLoader produces the authenticated principal for one authorization
// check. It is invoked once per guarded call, never ahead of one, and its
// failures propagate to the caller unmodified. Caching, if any, lives
// behind this function, never inside the gate.
type IdentityLoader[S any] func(ctx context.Context) (S, error)

// ForbiddenHandler produces the value substituted for the guarded
// operation's result when access is denied.
type ForbiddenHandler[R any] func(ctx context.Context) (R, error)

// Operation is the shape of a guarded operation. Callers close over their
// own arguments, so wrapping preserves any signature.
type Operation[R any] func(ctx context.Context) (R, error)

// Configuration errors, returned by New before any operation is wrapped.
var (
	ErrNilIdentityLoader   = errors.New("permit: identity loader is required")
	ErrNilForbiddenHandler = errors.New("permit: forbidden handler is required")
	ErrNilPredicate        = errors.New("permit: predicate is required")
)

// Gate intercepts invocation of guarded operations and enforces a predicate
// decision before allowing them to run. A Gate is immutable after New and
// safe for concurrent use; it keeps no state between invocations and every
// guarded call triggers a fresh identity load and a fresh evaluation.
// Multiple independently configured gates can coexist, e.g. with different
// identity sources per subsystem.
type Gate[S, R any] struct {
	loadIdentity IdentityLoader[S]
	onForbidden  ForbiddenHandler[R]
	logger       logger.Logger
	audit        *auditor
}

// New validates the collaborators and constructs a gate. A nil loader or
// handler is a configuration error reported here, not on first request.
func New[S, R any](loadIdentity IdentityLoader[S], onForbidden ForbiddenHandler[R], opts ...Option[S, R]) (*Gate[S, R], error) {
	if loadIdentity == nil {
		return nil, ErrNilIdentityLoader
	}
	if onForbidden == nil {
		return nil, ErrNilForbiddenHandler
	}
	g := &Gate[S, R]{
		loadIdentity: loadIdentity,
		onForbidden:  onForbidden,
		logger:       logger.NewNullLogger(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	if g.audit != nil {
		g.audit.logger = g.logger
	}
	return g, nil
}

// Require returns a wrapper enforcing p around any operation. Each call to
// the wrapped operation performs, in order: identity load, predicate
// evaluation, then either the operation (approved) or the forbidden
// handler (denied). Loader and evaluation failures short-circuit both
// branches and propagate unmodified. The wrapper composes with any other
// middleware-style wrapping the host applies around it.
func (g *Gate[S, R]) Require(p Predicate[S]) func(Operation[R]) Operation[R] {
	return func(op Operation[R]) Operation[R] {
		return func(ctx context.Context) (R, error) {
			var zero R
			if p == nil {
				return zero, ErrNilPredicate
			}
			identity, err := g.loadIdentity(ctx)
			if err != nil {
				g.logger.Debug("identity load failed", "error", err.Error())
				return zero, err
			}
			ok, err := p.Evaluate(identity)
			if err != nil {
				g.logger.Debug("evaluation failed", "requirement", p.String(), "error", err.Error())
				return zero, err
			}
			g.record(identity, p, ok)
			if !ok {
				g.logger.Debug("access denied", "requirement", p.String())
				return g.onForbidden(ctx)
			}
			g.logger.Debug("access granted", "requirement", p.String())
			return op(ctx)
		}
	}
}

// Guard wraps op with Require(p) in one step.
func (g *Gate[S, R]) Guard(p Predicate[S], op Operation[R]) Operation[R] {
	return g.Require(p)(op)
}

// Allowed loads the identity and evaluates p once, for callers that branch
// manually instead of wrapping an operation.
func (g *Gate[S, R]) Allowed(ctx context.Context, p Predicate[S]) (bool, error) {
	if p == nil {
		return false, ErrNilPredicate
	}
	identity, err := g.loadIdentity(ctx)
	if err != nil {
		return false, err
	}
	ok, err := p.Evaluate(identity)
	if err != nil {
		return false, err
	}
	g.record(identity, p, ok)
	return ok, nil
}

// Close flushes and stops the audit worker, if auditing is configured.
func (g *Gate[S, R]) Close() error {
	if g.audit != nil {
		g.audit.close()
	}
	return nil
}

func (g *Gate[S, R]) record(identity S, p Predicate[S], allowed bool) {
	if g.audit == nil {
		return
	}
	subject := ""
	if s, ok := any(identity).(interface{ SubjectID() string }); ok {
		subject = s.SubjectID()
	}
	g.audit.record(newEvent(subject, p.String(), allowed))
}
