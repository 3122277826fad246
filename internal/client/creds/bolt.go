package creds

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

var (
	bucketCredentials = []byte("credentials")
	bucketProfile     = []byte("profile")

	keyPair    = []byte("pair")
	keyProfile = []byte("me")
)

// BoltStore persists the credential pair and the cached profile blob in a
// single bbolt file. The pair is stored as one JSON value under one key, so
// replacement is atomic at the transaction level.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens (creating if needed) the bbolt database at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening credential db: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Save(p Pair) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketCredentials)
		if err != nil {
			return err
		}
		return b.Put(keyPair, data)
	})
}

func (s *BoltStore) Load() (Pair, error) {
	var p Pair
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		if b == nil {
			return nil
		}
		data := b.Get(keyPair)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &p)
	})
	if err != nil {
		return Pair{}, err
	}
	return p, nil
}

func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		if b == nil {
			return nil
		}
		return b.Delete(keyPair)
	})
}

// SaveProfile stores the serialized last-known user profile. The blob is a
// display fallback only; it must never gate access.
func (s *BoltStore) SaveProfile(blob []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketProfile)
		if err != nil {
			return err
		}
		return b.Put(keyProfile, blob)
	})
}

// LoadProfile returns the cached profile blob, or nil when absent.
func (s *BoltStore) LoadProfile() ([]byte, error) {
	var blob []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketProfile)
		if b == nil {
			return nil
		}
		if data := b.Get(keyProfile); data != nil {
			blob = append([]byte(nil), data...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// ClearProfile removes the cached profile blob. Idempotent.
func (s *BoltStore) ClearProfile() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketProfile)
		if b == nil {
			return nil
		}
		return b.Delete(keyProfile)
	})
}
