package guard

import (
	"context"
	"net/http"

	"github.com/sunwoojg/carelink/internal/client/api"
	"github.com/sunwoojg/carelink/internal/client/session"
)

// Source is the slice of the session controller the middleware reads.
// It is deliberately read-only.
type Source interface {
	Snapshot() session.Snapshot
	WaitReady(ctx context.Context) (session.Snapshot, error)
}

// Middleware returns an HTTP middleware enforcing the guard decision for
// every request passing through it. While the session is Unknown the
// request waits (bounded by its own context) instead of being judged on
// an unresolved state.
func Middleware(src Source, required api.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := src.Snapshot()
			if snap.State == session.StateUnknown {
				resolved, err := src.WaitReady(r.Context())
				if err != nil {
					http.Error(w, "session not ready", http.StatusServiceUnavailable)
					return
				}
				snap = resolved
			}

			switch d := Decide(snap, required, r.URL.RequestURI()); d.Action {
			case ActionAllow:
				next.ServeHTTP(w, r)
			case ActionRedirectLogin, ActionRedirectForbidden:
				http.Redirect(w, r, d.Location, http.StatusFound)
			default:
				http.Error(w, "session not ready", http.StatusServiceUnavailable)
			}
		})
	}
}
