package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"mbank/internal/util/memzero"
)

const (
	// The current supported version of the sealed formats.
	formatVersion = 1

	saltSize = 16
)

var (
	// ErrWrongPassphrase is returned when the passphrase is incorrect or the
	// ciphertext has been modified / corrupted.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted secure storage")

	// ErrClosed is returned by stores used after Close.
	ErrClosed = errors.New("secure storage is closed")

	errPassphraseRequired = errors.New("passphrase is required")
)

// kdfParams are the scrypt tunables recorded next to the salt.
type kdfParams struct {
	N int `json:"scrypt_N"`
	R int `json:"scrypt_r"`
	P int `json:"scrypt_p"`
}

// Tunables for scrypt key derivation.
func defaultKDF() kdfParams { return kdfParams{N: 1 << 15, R: 8, P: 1} }

func newSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// sealer holds a passphrase-derived key and seals/opens values with it.
type sealer struct {
	mu  sync.RWMutex
	key []byte
}

func newSealer(passphrase string, salt []byte, kdf kdfParams) (*sealer, error) {
	if passphrase == "" {
		return nil, errPassphraseRequired
	}
	key, err := scrypt.Key([]byte(passphrase), salt, kdf.N, kdf.R, kdf.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return &sealer{key: key}, nil
}

// seal returns nonce||ciphertext. ad binds the ciphertext to its context.
func (s *sealer) seal(plaintext, ad []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == nil {
		return nil, ErrClosed
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return nil, err
	}
	return aead.Seal(out, out, plaintext, ad), nil
}

func (s *sealer) open(sealed, ad []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == nil {
		return nil, ErrClosed
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrWrongPassphrase
	}
	nonce, ct := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	pt, err := aead.Open(nil, nonce, ct, ad)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

// wipe zeroes the derived key; the sealer is unusable afterwards.
func (s *sealer) wipe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	memzero.Zero(s.key)
	s.key = nil
}
