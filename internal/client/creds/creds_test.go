package creds

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
		Subject:   "42",
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func tokenWithoutExp(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "42"})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	bolt, err := OpenBolt(filepath.Join(t.TempDir(), "creds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"bolt":   bolt,
		"sealed": NewSealedFileStore(filepath.Join(t.TempDir(), "creds.sealed"), []byte("vault-secret")),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			p, err := s.Load()
			require.NoError(t, err)
			require.True(t, p.Empty())

			require.NoError(t, s.Save(Pair{Access: "a1", Refresh: "r1"}))
			p, err = s.Load()
			require.NoError(t, err)
			require.Equal(t, Pair{Access: "a1", Refresh: "r1"}, p)
		})
	}
}

func TestStore_PairReplacementIsAtomic(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(Pair{Access: "a1", Refresh: "r1"}))
			require.NoError(t, s.Save(Pair{Access: "a2", Refresh: "r2"}))

			p, err := s.Load()
			require.NoError(t, err)
			// Never a mix of the two pairs.
			require.Equal(t, Pair{Access: "a2", Refresh: "r2"}, p)
		})
	}
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(Pair{Access: "a", Refresh: "r"}))
			require.NoError(t, s.Clear())
			require.NoError(t, s.Clear())

			p, err := s.Load()
			require.NoError(t, err)
			require.True(t, p.Empty())
		})
	}
}

func TestMemoryStore_ConcurrentSaveLoad(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Save(Pair{Access: "a", Refresh: "r"})
		}()
		go func() {
			defer wg.Done()
			p, err := s.Load()
			require.NoError(t, err)
			// Either empty or the full pair, never half of it.
			if !p.Empty() {
				require.Equal(t, Pair{Access: "a", Refresh: "r"}, p)
			}
		}()
	}
	wg.Wait()
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.db")

	s, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(Pair{Access: "a", Refresh: "r"}))
	require.NoError(t, s.Close())

	s, err = OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()

	p, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, Pair{Access: "a", Refresh: "r"}, p)
}

func TestBoltStore_ProfileCache(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "creds.db"))
	require.NoError(t, err)
	defer s.Close()

	blob, err := s.LoadProfile()
	require.NoError(t, err)
	require.Nil(t, blob)

	require.NoError(t, s.SaveProfile([]byte(`{"id":7}`)))
	blob, err = s.LoadProfile()
	require.NoError(t, err)
	require.JSONEq(t, `{"id":7}`, string(blob))

	require.NoError(t, s.ClearProfile())
	require.NoError(t, s.ClearProfile())
	blob, err = s.LoadProfile()
	require.NoError(t, err)
	require.Nil(t, blob)
}

func TestSealedFileStore_OpaqueOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.sealed")
	s := NewSealedFileStore(path, []byte("vault-secret"))
	require.NoError(t, s.Save(Pair{Access: "super-secret-access", Refresh: "super-secret-refresh"}))

	raw := readFile(t, path)
	require.NotContains(t, string(raw), "super-secret-access")
	require.NotContains(t, string(raw), "super-secret-refresh")
}

func TestSealedFileStore_WrongSecretFailsClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.sealed")
	require.NoError(t, NewSealedFileStore(path, []byte("right")).Save(Pair{Access: "a", Refresh: "r"}))

	_, err := NewSealedFileStore(path, []byte("wrong")).Load()
	require.ErrorIs(t, err, errSealedCorrupt)
}

func TestExpired_FailClosed(t *testing.T) {
	now := time.Now()

	require.True(t, Expired("", now))
	require.True(t, Expired("not-a-jwt", now))
	require.True(t, Expired("a.b.c", now))
	require.True(t, Expired(tokenWithoutExp(t), now))
}

func TestExpired_HonorsExpClaim(t *testing.T) {
	now := time.Now()

	require.False(t, Expired(signedToken(t, now.Add(time.Hour)), now))
	require.True(t, Expired(signedToken(t, now.Add(-time.Hour)), now))
	require.True(t, Expired(signedToken(t, now), now))
}
