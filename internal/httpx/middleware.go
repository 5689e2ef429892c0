package httpx

// Package httpx adapts guard decisions into net/http middleware for
// applications that embed the session core and serve protected routes.

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/edustack/sessionkit/internal/domain/session"
	"github.com/edustack/sessionkit/internal/service"
)

type userCtxKey struct{}

// UserFromContext returns the session user attached by the middleware.
func UserFromContext(ctx context.Context) (*session.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(*session.User)
	return u, ok
}

// RequireAuth returns middleware admitting only authenticated sessions.
func RequireAuth(mgr *service.Manager) func(http.Handler) http.Handler {
	return RequireRoles(mgr, session.Requirement{})
}

// RequireRoles returns middleware that evaluates a role requirement against
// the current session on every request. While a session operation is still in
// flight it answers 503 with Retry-After rather than a denial; forbidden
// responses carry both the required and the held roles for diagnostic
// display.
func RequireRoles(mgr *service.Manager, req session.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := mgr.State()
			decision := session.Decide(state, req)

			if decision.Admit {
				ctx := context.WithValue(r.Context(), userCtxKey{}, state.User)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			switch decision.Reason {
			case session.ReasonPending:
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{
					"error": "session_pending",
				})
			case session.ReasonUnauthenticated:
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"error": "authentication_required",
				})
			case session.ReasonForbidden:
				writeJSON(w, http.StatusForbidden, map[string]any{
					"error":          "insufficient_role",
					"roles_required": decision.RolesRequired,
					"roles_held":     decision.RolesHeld,
				})
			default:
				writeJSON(w, http.StatusForbidden, map[string]any{
					"error": "access_denied",
				})
			}
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
