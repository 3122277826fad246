// Package guard gates role-restricted views on the published session
// state. The decision is a pure function of the session snapshot; the
// middleware only reacts to it and never mutates the session or talks to
// the backend.
package guard

import (
	"net/url"

	"github.com/sunwoojg/carelink/internal/client/api"
	"github.com/sunwoojg/carelink/internal/client/session"
)

// Action is what the guarded surface should do for a request.
type Action int

const (
	// ActionWait: session still Unknown, hold rendering.
	ActionWait Action = iota
	// ActionAllow: render the protected view.
	ActionAllow
	// ActionRedirectLogin: no session, send to login preserving the
	// originally requested path.
	ActionRedirectLogin
	// ActionRedirectForbidden: authenticated but the role does not match.
	ActionRedirectForbidden
)

// LoginPath and ForbiddenPath are where redirects land.
const (
	LoginPath     = "/login"
	ForbiddenPath = "/forbidden"
)

// Decision is the guard's verdict. Location is set for redirect actions.
type Decision struct {
	Action   Action
	Location string
}

// Decide maps a session snapshot to a guard verdict. required may be
// empty, meaning any authenticated user passes. originalPath is carried
// into the login redirect so the user returns where they were headed.
func Decide(snap session.Snapshot, required api.Role, originalPath string) Decision {
	switch snap.State {
	case session.StateUnknown:
		return Decision{Action: ActionWait}
	case session.StateUnauthenticated:
		loc := LoginPath
		if originalPath != "" {
			loc += "?next=" + url.QueryEscape(originalPath)
		}
		return Decision{Action: ActionRedirectLogin, Location: loc}
	}

	if required != "" && (snap.User == nil || snap.User.Role != required) {
		return Decision{Action: ActionRedirectForbidden, Location: ForbiddenPath}
	}
	return Decision{Action: ActionAllow}
}
