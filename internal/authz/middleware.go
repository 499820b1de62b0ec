package authz

import (
	"log/slog"
	"net/http"
)

// DecisionObserver receives the outcome of every middleware-level check,
// typically backed by a Prometheus counter.
type DecisionObserver interface {
	ObserveDecision(allowed bool)
}

// Middleware wires permission checks into HTTP handlers. Object-level checks
// stay in the services; this guards the flat, non-object permissions.
type Middleware struct {
	Logger  *slog.Logger
	Metrics DecisionObserver
}

// RequireAny ensures the current actor holds at least one of the permissions.
func (m Middleware) RequireAny(codenames ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(codenames) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			for _, codename := range codenames {
				if Authorize(actor, codename, nil) {
					m.observe(true)
					next.ServeHTTP(w, r)
					return
				}
			}
			m.observe(false)
			if m.Logger != nil {
				m.Logger.Warn("permission denied",
					slog.Int64("user_id", actor.UserID),
					slog.Any("required", codenames))
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// RequireAll ensures the current actor holds every listed permission.
func (m Middleware) RequireAll(codenames ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			for _, codename := range codenames {
				if !Authorize(actor, codename, nil) {
					m.observe(false)
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
			}
			m.observe(true)
			next.ServeHTTP(w, r)
		})
	}
}

// RequireActor only asserts that an authenticated actor is present.
func (m Middleware) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ActorFromContext(r.Context()); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) observe(allowed bool) {
	if m.Metrics != nil {
		m.Metrics.ObserveDecision(allowed)
	}
}
