package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sunwoojg/carelink/internal/client/api"
	"github.com/sunwoojg/carelink/internal/client/session"
)

func authedSnap(role api.Role) session.Snapshot {
	return session.Snapshot{
		State: session.StateAuthenticated,
		User:  &api.User{ID: 1, Email: "a@b.com", Role: role},
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		snap     session.Snapshot
		required api.Role
		path     string
		want     Decision
	}{
		{
			name: "unknown waits",
			snap: session.Snapshot{State: session.StateUnknown},
			want: Decision{Action: ActionWait},
		},
		{
			name: "unauthenticated redirects to login with return path",
			snap: session.Snapshot{State: session.StateUnauthenticated},
			path: "/wallet?tab=history",
			want: Decision{Action: ActionRedirectLogin, Location: "/login?next=%2Fwallet%3Ftab%3Dhistory"},
		},
		{
			name: "authenticated passes without role requirement",
			snap: authedSnap(api.RoleClient),
			want: Decision{Action: ActionAllow},
		},
		{
			name:     "matching role passes",
			snap:     authedSnap(api.RoleExpert),
			required: api.RoleExpert,
			want:     Decision{Action: ActionAllow},
		},
		{
			name:     "role mismatch is forbidden",
			snap:     authedSnap(api.RoleClient),
			required: api.RoleExpert,
			want:     Decision{Action: ActionRedirectForbidden, Location: ForbiddenPath},
		},
		{
			name:     "authenticated without user record fails closed",
			snap:     session.Snapshot{State: session.StateAuthenticated},
			required: api.RoleClient,
			want:     Decision{Action: ActionRedirectForbidden, Location: ForbiddenPath},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Decide(tc.snap, tc.required, tc.path))
		})
	}
}

// fakeSource serves a fixed snapshot; ready controls WaitReady.
type fakeSource struct {
	snap  session.Snapshot
	ready chan struct{}
}

func (f *fakeSource) Snapshot() session.Snapshot { return f.snap }

func (f *fakeSource) WaitReady(ctx context.Context) (session.Snapshot, error) {
	select {
	case <-f.ready:
		return f.snap, nil
	case <-ctx.Done():
		return session.Snapshot{}, ctx.Err()
	}
}

func guardedOK(src Source, required api.Role) http.Handler {
	return Middleware(src, required)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("protected"))
	}))
}

func TestMiddleware_AllowsAuthenticated(t *testing.T) {
	src := &fakeSource{snap: authedSnap(api.RoleClient)}
	rec := httptest.NewRecorder()
	guardedOK(src, "").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "protected", rec.Body.String())
}

func TestMiddleware_RedirectsUnauthenticated(t *testing.T) {
	src := &fakeSource{snap: session.Snapshot{State: session.StateUnauthenticated}}
	rec := httptest.NewRecorder()
	guardedOK(src, "").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wallet?tab=history", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login?next=%2Fwallet%3Ftab%3Dhistory", rec.Header().Get("Location"))
}

func TestMiddleware_RedirectsRoleMismatch(t *testing.T) {
	src := &fakeSource{snap: authedSnap(api.RoleClient)}
	rec := httptest.NewRecorder()
	guardedOK(src, api.RoleExpert).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/expert/columns", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, ForbiddenPath, rec.Header().Get("Location"))
}

func TestMiddleware_WaitsOutUnknownState(t *testing.T) {
	src := &fakeSource{
		snap:  session.Snapshot{State: session.StateUnknown},
		ready: make(chan struct{}),
	}

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec := httptest.NewRecorder()
		guardedOK(src, "").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		done <- rec
	}()

	// Resolve the session while the request is parked.
	time.Sleep(20 * time.Millisecond)
	src.snap = authedSnap(api.RoleClient)
	close(src.ready)

	select {
	case rec := <-done:
		require.Equal(t, http.StatusOK, rec.Code)
	case <-time.After(time.Second):
		t.Fatal("request never resolved")
	}
}

func TestMiddleware_UnknownTimesOutAsUnavailable(t *testing.T) {
	src := &fakeSource{
		snap:  session.Snapshot{State: session.StateUnknown},
		ready: make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	guardedOK(src, "").ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// The real controller satisfies the middleware's read-only source.
var _ Source = (*session.Controller)(nil)
