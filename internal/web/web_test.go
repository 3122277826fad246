package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunwoojg/carelink/internal/client/api"
	"github.com/sunwoojg/carelink/internal/client/creds"
	"github.com/sunwoojg/carelink/internal/client/session"
	"github.com/sunwoojg/carelink/internal/logging"
)

// fakeMarketplace is a minimal scripted backend.
type fakeMarketplace struct {
	mu       *http.ServeMux
	loggedIn bool
	role     string
}

func newFakeMarketplace(role string) *fakeMarketplace {
	f := &fakeMarketplace{mu: http.NewServeMux(), role: role}

	f.mu.HandleFunc("POST /auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "password123" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "bad credentials"})
			return
		}
		f.loggedIn = true
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "acc-1", "refresh": "ref-1"})
	})
	f.mu.HandleFunc("POST /auth/logout/", func(w http.ResponseWriter, r *http.Request) {
		f.loggedIn = false
		w.WriteHeader(http.StatusOK)
	})
	f.mu.HandleFunc("GET /user/me/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer acc-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 1, "email": "a@b.com", "name": "Ana", "user_type": f.role,
		})
	})
	f.mu.HandleFunc("GET /qna/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count": 1,
			"results": []map[string]any{
				{"id": 5, "title": "Reading struggles at age 7", "answer_count": 2},
			},
		})
	})
	f.mu.HandleFunc("GET /experts/9/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 9, "name": "Dr. Kim", "consultation_fee": 50,
		})
	})
	f.mu.HandleFunc("GET /wallet/balance/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"tokens": 10})
	})

	return f
}

type fixture struct {
	backend   *httptest.Server
	dashboard http.Handler
	sess      *session.Controller
	store     creds.Store
}

func newFixture(t *testing.T, role string) *fixture {
	t.Helper()

	market := newFakeMarketplace(role)
	backend := httptest.NewServer(market.mu)
	t.Cleanup(backend.Close)

	store := creds.NewMemoryStore()
	log := logging.Nop()

	var sess *session.Controller
	client, err := api.New(backend.URL, store,
		api.WithLogger(log),
		api.WithAuthRevokedHook(func() { sess.HandleAuthRevoked() }),
	)
	require.NoError(t, err)

	sess = session.New(client, store, session.WithLogger(log))
	require.NoError(t, sess.Bootstrap(context.Background()))

	return &fixture{
		backend:   backend,
		dashboard: NewRouter(client, sess, log),
		sess:      sess,
		store:     store,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	f.dashboard.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/login", map[string]string{
		"email": "a@b.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboard_ProtectedRouteRedirectsWhenLoggedOut(t *testing.T) {
	f := newFixture(t, "client")

	rec := f.do(t, http.MethodGet, "/api/qna?page=2", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login?next=%2Fapi%2Fqna%3Fpage%3D2", rec.Header().Get("Location"))
}

func TestDashboard_LoginThenProtectedRouteSucceeds(t *testing.T) {
	f := newFixture(t, "client")

	require.Equal(t, session.StateUnauthenticated, f.sess.Snapshot().State)
	f.login(t)
	require.Equal(t, session.StateAuthenticated, f.sess.Snapshot().State)

	pair, err := f.store.Load()
	require.NoError(t, err)
	require.Equal(t, creds.Pair{Access: "acc-1", Refresh: "ref-1"}, pair)

	rec := f.do(t, http.MethodGet, "/api/qna", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Reading struggles")
}

func TestDashboard_BadPasswordSurfacesBackendError(t *testing.T) {
	f := newFixture(t, "client")

	rec := f.do(t, http.MethodPost, "/api/login", map[string]string{
		"email": "a@b.com", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "bad credentials")
	require.Equal(t, session.StateUnauthenticated, f.sess.Snapshot().State)
}

func TestDashboard_ExpertOnlyRouteRejectsClients(t *testing.T) {
	f := newFixture(t, "client")
	f.login(t)

	rec := f.do(t, http.MethodPost, "/api/qna/5/answers", map[string]string{"body": "try phonics drills"})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/forbidden", rec.Header().Get("Location"))
}

func TestDashboard_BookingFailsFastOnInsufficientBalance(t *testing.T) {
	f := newFixture(t, "client")
	f.login(t)

	// Fee is 50, balance is 10.
	rec := f.do(t, http.MethodPost, "/api/consultations", map[string]any{
		"expert_id": 9, "slot_id": 3, "topic": "reading support",
	})
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	require.Contains(t, rec.Body.String(), "insufficient token balance")
}

func TestDashboard_OfflineLogoutStillClearsSession(t *testing.T) {
	f := newFixture(t, "client")
	f.login(t)

	// Take the backend away, then log out.
	f.backend.Close()

	rec := f.do(t, http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, session.StateUnauthenticated, f.sess.Snapshot().State)

	pair, err := f.store.Load()
	require.NoError(t, err)
	require.True(t, pair.Empty())
}

func TestDashboard_SessionEndpointReportsState(t *testing.T) {
	f := newFixture(t, "expert")

	rec := f.do(t, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"state":"unauthenticated"`)

	f.login(t)
	rec = f.do(t, http.MethodGet, "/api/session", nil)
	require.Contains(t, rec.Body.String(), `"state":"authenticated"`)
	require.Contains(t, rec.Body.String(), `"user_type":"expert"`)
}

func TestDashboard_ValidationErrorsCarryFieldDetail(t *testing.T) {
	f := newFixture(t, "client")
	f.login(t)

	rec := f.do(t, http.MethodPost, "/api/qna", map[string]string{"title": "", "body": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Fields, "title")
	require.Contains(t, body.Fields, "body")
}

func TestDashboard_Healthz(t *testing.T) {
	f := newFixture(t, "client")
	rec := f.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
