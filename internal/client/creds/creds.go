// Package creds owns the client-side credential pair: the short-lived
// access token authorizing API requests and the longer-lived refresh token
// used solely to mint a new access token.
//
// Persistence sits behind the Store interface so the session and request
// layers never care whether credentials live in memory (tests), a bbolt
// file (default), or an encrypted file.
package creds

import "errors"

// ErrStoreClosed is returned by stores whose backing medium is gone.
var ErrStoreClosed = errors.New("credential store closed")

// Pair is the credential pair issued at login and rotated on refresh.
// A zero Pair means "no credentials".
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Empty reports whether no credential of either kind is present.
func (p Pair) Empty() bool {
	return p.Access == "" && p.Refresh == ""
}

// Store is the capability interface for credential persistence.
//
// Contract:
//   - Save replaces any previous pair atomically: a concurrent Load
//     observes either the old pair or the new one, never a mix.
//   - Load returns the zero Pair (not an error) when nothing is stored.
//   - Clear removes both values and is idempotent.
type Store interface {
	Save(p Pair) error
	Load() (Pair, error)
	Clear() error
}
