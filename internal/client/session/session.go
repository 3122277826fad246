// Package session is the single source of truth for "who is logged in".
//
// The controller owns the tri-state session value (Unknown while bootstrap
// is unresolved, then Authenticated or Unauthenticated), the login/logout
// transitions, and the cached profile fallback. It is an explicit injected
// object, not an ambient singleton, so tests run isolated instances.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sunwoojg/carelink/internal/client/api"
	"github.com/sunwoojg/carelink/internal/client/creds"
	"github.com/sunwoojg/carelink/internal/logging"
)

// State is the published session tag. Consumers must treat Unknown as
// "not resolved yet" and wait, never as a terminal state.
type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the session at one instant. User is
// non-nil exactly when State is StateAuthenticated.
type Snapshot struct {
	State State
	User  *api.User
}

// Backend is the slice of the API client the controller needs.
type Backend interface {
	Login(ctx context.Context, in api.Credentials) (creds.Pair, error)
	Logout(ctx context.Context, refresh string) error
	Me(ctx context.Context) (*api.User, error)
}

// ProfileCache stores the serialized last-known user as a display-only
// fallback. It never gates access; only the live State does.
type ProfileCache interface {
	SaveProfile(blob []byte) error
	LoadProfile() ([]byte, error)
	ClearProfile() error
}

// Controller orchestrates the session lifecycle.
type Controller struct {
	backend Backend
	store   creds.Store
	cache   ProfileCache
	log     logging.Logger

	mu    sync.Mutex
	state State
	user  *api.User
	subs  map[int]chan Snapshot
	next  int

	readyOnce sync.Once
	ready     chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithProfileCache attaches the durable profile fallback.
func WithProfileCache(pc ProfileCache) Option {
	return func(c *Controller) { c.cache = pc }
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New builds a Controller in the Unknown state. Call Bootstrap to resolve
// it. Wire HandleAuthRevoked into the API client's auth-revoked hook so
// refresh failures surfaced by the pipeline end the session.
func New(backend Backend, store creds.Store, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		store:   store,
		log:     logging.Nop(),
		state:   StateUnknown,
		subs:    map[int]chan Snapshot{},
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.state, User: c.user}
}

// WaitReady blocks until the session has left Unknown, or ctx ends.
func (c *Controller) WaitReady(ctx context.Context) (Snapshot, error) {
	select {
	case <-c.ready:
		return c.Snapshot(), nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Subscribe returns a channel receiving state snapshots and a cancel
// function. Slow consumers miss intermediate snapshots rather than block
// the controller.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	ch := make(chan Snapshot, 8)
	c.subs[id] = ch
	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
	return ch, cancel
}

func (c *Controller) setState(ctx context.Context, st State, u *api.User) {
	c.mu.Lock()
	c.state = st
	c.user = u
	snap := Snapshot{State: st, User: u}
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	c.mu.Unlock()

	if st != StateUnknown {
		c.readyOnce.Do(func() { close(c.ready) })
	}
	c.log.Info(ctx, "session state changed", "state", st.String())
}

// Bootstrap resolves the initial session state.
//
// With no stored credentials it settles on Unauthenticated without a
// single network call. With any credential present it fetches the current
// user (the pipeline refreshes transparently if the access token has
// expired). A terminal auth failure clears everything; a transient
// failure resolves to Unauthenticated without destroying the stored pair,
// so a later restart can try again.
func (c *Controller) Bootstrap(ctx context.Context) error {
	pair, err := c.store.Load()
	if err != nil {
		c.setState(ctx, StateUnauthenticated, nil)
		return fmt.Errorf("loading credentials: %w", err)
	}
	if pair.Empty() {
		c.setState(ctx, StateUnauthenticated, nil)
		return nil
	}
	if creds.Expired(pair.Access, time.Now()) {
		c.log.Debug(ctx, "stored access token expired, pipeline will refresh")
	}

	u, err := c.backend.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrAuthRevoked) {
			c.clearLocal(ctx)
			c.setState(ctx, StateUnauthenticated, nil)
			return nil
		}
		c.log.Warn(ctx, "bootstrap user fetch failed", "err", err)
		c.setState(ctx, StateUnauthenticated, nil)
		return err
	}

	c.cacheProfile(ctx, u)
	c.setState(ctx, StateAuthenticated, u)
	return nil
}

// Login runs the full login transition: exchange credentials for a token
// pair, persist it, fetch the user, publish Authenticated.
func (c *Controller) Login(ctx context.Context, in api.Credentials) (*api.User, error) {
	pair, err := c.backend.Login(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(pair); err != nil {
		return nil, fmt.Errorf("saving credentials: %w", err)
	}

	u, err := c.backend.Me(ctx)
	if err != nil {
		c.clearLocal(ctx)
		c.setState(ctx, StateUnauthenticated, nil)
		return nil, fmt.Errorf("fetching user after login: %w", err)
	}

	c.cacheProfile(ctx, u)
	c.setState(ctx, StateAuthenticated, u)
	return u, nil
}

// AdoptPair installs a token pair issued outside the login flow (signup
// issues one) and completes the same transition as Login.
func (c *Controller) AdoptPair(ctx context.Context, pair creds.Pair) (*api.User, error) {
	if err := c.store.Save(pair); err != nil {
		return nil, fmt.Errorf("saving credentials: %w", err)
	}
	u, err := c.backend.Me(ctx)
	if err != nil {
		c.clearLocal(ctx)
		c.setState(ctx, StateUnauthenticated, nil)
		return nil, fmt.Errorf("fetching user after signup: %w", err)
	}
	c.cacheProfile(ctx, u)
	c.setState(ctx, StateAuthenticated, u)
	return u, nil
}

// Logout notifies the backend best-effort, then unconditionally clears
// local credentials and the cached profile. It never fails because the
// network did.
func (c *Controller) Logout(ctx context.Context) error {
	pair, err := c.store.Load()
	if err == nil && pair.Refresh != "" {
		if err := c.backend.Logout(ctx, pair.Refresh); err != nil {
			c.log.Warn(ctx, "backend logout failed, clearing locally anyway", "err", err)
		}
	}

	c.clearLocal(ctx)
	c.setState(ctx, StateUnauthenticated, nil)
	return nil
}

// RefreshUser re-fetches the current user without touching credentials.
// A transient failure keeps the session alive and is only reported; a
// terminal auth failure ends the session. Only call while Authenticated.
func (c *Controller) RefreshUser(ctx context.Context) (*api.User, error) {
	if snap := c.Snapshot(); snap.State != StateAuthenticated {
		return nil, fmt.Errorf("refresh user: session is %s", snap.State)
	}

	u, err := c.backend.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrAuthRevoked) {
			c.clearLocal(ctx)
			c.setState(ctx, StateUnauthenticated, nil)
			return nil, err
		}
		c.log.Warn(ctx, "user refresh failed, keeping session", "err", err)
		return nil, err
	}

	c.cacheProfile(ctx, u)
	c.setState(ctx, StateAuthenticated, u)
	return u, nil
}

// HandleAuthRevoked reacts to a terminal refresh failure surfaced by the
// request pipeline (which has already cleared the credential store).
func (c *Controller) HandleAuthRevoked() {
	ctx := context.Background()
	if c.cache != nil {
		if err := c.cache.ClearProfile(); err != nil {
			c.log.Error(ctx, "clearing cached profile failed", "err", err)
		}
	}
	c.setState(ctx, StateUnauthenticated, nil)
}

// CachedUser returns the display-only profile fallback, if one is stored.
// It must never be used for authorization decisions.
func (c *Controller) CachedUser() (*api.User, bool) {
	if c.cache == nil {
		return nil, false
	}
	blob, err := c.cache.LoadProfile()
	if err != nil || len(blob) == 0 {
		return nil, false
	}
	var u api.User
	if err := json.Unmarshal(blob, &u); err != nil {
		return nil, false
	}
	return &u, true
}

func (c *Controller) cacheProfile(ctx context.Context, u *api.User) {
	if c.cache == nil {
		return
	}
	blob, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := c.cache.SaveProfile(blob); err != nil {
		c.log.Warn(ctx, "caching profile failed", "err", err)
	}
}

func (c *Controller) clearLocal(ctx context.Context) {
	if err := c.store.Clear(); err != nil {
		c.log.Error(ctx, "clearing credentials failed", "err", err)
	}
	if c.cache != nil {
		if err := c.cache.ClearProfile(); err != nil {
			c.log.Error(ctx, "clearing cached profile failed", "err", err)
		}
	}
}
