package creds

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
)

const (
	sealSaltSize  = 16
	sealNonceSize = 12
)

var errSealedCorrupt = errors.New("sealed credential file corrupt")

// SealedFileStore keeps the pair encrypted at rest in a single file:
// salt || nonce || AES-GCM(ciphertext of the JSON pair). The AEAD key is
// derived from the caller-supplied secret with argon2id, a fresh salt per
// write. Writes go through a temp file and rename so a crash never leaves
// a torn pair on disk.
type SealedFileStore struct {
	path   string
	secret []byte
}

// NewSealedFileStore builds a store writing to path, sealing with secret.
func NewSealedFileStore(path string, secret []byte) *SealedFileStore {
	return &SealedFileStore{path: path, secret: append([]byte(nil), secret...)}
}

func deriveSealKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

func (s *SealedFileStore) Save(p Pair) error {
	plaintext, err := json.Marshal(p)
	if err != nil {
		return err
	}

	salt := make([]byte, sealSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return err
	}
	nonce := make([]byte, sealNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return err
	}

	block, err := aes.NewCipher(deriveSealKey(s.secret, salt))
	if err != nil {
		return err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}
	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)

	blob := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, blob, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *SealedFileStore) Load() (Pair, error) {
	blob, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Pair{}, nil
		}
		return Pair{}, err
	}
	if len(blob) < sealSaltSize+sealNonceSize {
		return Pair{}, errSealedCorrupt
	}

	salt := blob[:sealSaltSize]
	nonce := blob[sealSaltSize : sealSaltSize+sealNonceSize]
	ciphertext := blob[sealSaltSize+sealNonceSize:]

	block, err := aes.NewCipher(deriveSealKey(s.secret, salt))
	if err != nil {
		return Pair{}, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return Pair{}, err
	}
	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Pair{}, fmt.Errorf("%w: %w", errSealedCorrupt, err)
	}

	var p Pair
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return Pair{}, err
	}
	return p, nil
}

func (s *SealedFileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
