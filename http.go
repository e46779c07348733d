package permit

import (
	"context"
	"fmt"
	"net/http"

	"github.com/oarkflow/permit/logger"
)

// ============================================================================
// NET/HTTP INTEGRATION
// ============================================================================

// HTTPOptions configures the net/http authorization middleware. The
// identity extractor is supplied by the application (the host framework
// owns authentication); OnDenied and OnError customize the responses.
type HTTPOptions[S any] struct {
	// Identity resolves the authenticated principal for the request.
	// Extraction failures are reported through OnError, never as a denial.
	Identity func(r *http.Request) (S, error)
	// Predicate is evaluated against the extracted identity.
	Predicate Predicate[S]
	// OnDenied handles a false predicate result. Defaults to 403.
	OnDenied func(w http.ResponseWriter, r *http.Request)
	// OnError handles identity or evaluation failures. Defaults to 500.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
	Logger  logger.Logger
}

// RequireHTTP returns a middleware enforcing the predicate before the
// wrapped handler runs. The order matches Gate.Require: identity first,
// evaluation second, then the allow/deny branch; the protected handler
// never runs on a failure or denial. The middleware stacks freely with
// other http.Handler wrappers.
func RequireHTTP[S any](opts HTTPOptions[S]) func(next http.Handler) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNullLogger()
	}
	onDenied := opts.OnDenied
	if onDenied == nil {
		onDenied = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("forbidden"))
		}
	}
	onError := opts.OnError
	if onError == nil {
		onError = func(w http.ResponseWriter, r *http.Request, err error) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("internal error"))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.Identity == nil || opts.Predicate == nil {
				onError(w, r, fmt.Errorf("middleware misconfigured: Identity extractor and Predicate are required"))
				return
			}

			identity, err := opts.Identity(r)
			if err != nil {
				log.Debug("identity extraction failed", "path", r.URL.Path, "error", err.Error())
				onError(w, r, err)
				return
			}

			ok, err := opts.Predicate.Evaluate(identity)
			if err != nil {
				log.Debug("evaluation failed", "path", r.URL.Path, "requirement", opts.Predicate.String(), "error", err.Error())
				onError(w, r, err)
				return
			}
			if !ok {
				log.Debug("access denied", "path", r.URL.Path, "requirement", opts.Predicate.String())
				onDenied(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

type identityCtxKey struct{}

// ContextWithIdentity attaches the loaded identity to the context so
// downstream handlers can reuse it without a second load.
func ContextWithIdentity[S any](ctx context.Context, identity S) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// IdentityFromContext retrieves the identity attached by the middleware.
func IdentityFromContext[S any](ctx context.Context) (S, bool) {
	v, ok := ctx.Value(identityCtxKey{}).(S)
	return v, ok
}
