package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"mbank/internal/domain"
)

// SecureFileName is the encrypted key/value file inside the store directory.
const SecureFileName = "secure.json.enc"

var fileAD = []byte("mbank/secure-file")

// fileEnvelope is the on-disk JSON structure holding the KDF parameters and
// the sealed key/value map.
type fileEnvelope struct {
	V    int    `json:"v"`
	Salt []byte `json:"salt"`
	kdfParams
	Cipher []byte `json:"cipher"`
}

// SecureFileStore keeps every value in a single encrypted file. Reads always
// go to disk so a second process sees committed writes.
type SecureFileStore struct {
	path string
	salt []byte
	kdf  kdfParams
	seal *sealer

	mu sync.Mutex
}

var _ domain.SecureStore = (*SecureFileStore)(nil)

// NewSecureFileStore opens (or prepares) dir/secure.json.enc with a key derived
// from passphrase. An existing file sealed under another passphrase yields
// ErrWrongPassphrase.
func NewSecureFileStore(dir, passphrase string) (*SecureFileStore, error) {
	path := filepath.Join(dir, SecureFileName)
	b, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secure storage: %w", err)
	}

	if b == nil {
		salt, err := newSalt()
		if err != nil {
			return nil, err
		}
		kdf := defaultKDF()
		s, err := newSealer(passphrase, salt, kdf)
		if err != nil {
			return nil, err
		}
		return &SecureFileStore{path: path, salt: salt, kdf: kdf, seal: s}, nil
	}

	env, err := decodeEnvelope(b)
	if err != nil {
		return nil, err
	}
	s, err := newSealer(passphrase, env.Salt, env.kdfParams)
	if err != nil {
		return nil, err
	}
	fs := &SecureFileStore{path: path, salt: env.Salt, kdf: env.kdfParams, seal: s}
	if _, err := fs.openEnvelope(env); err != nil {
		s.wipe()
		return nil, err
	}
	return fs, nil
}

// Get returns the value stored under key.
func (fs *SecureFileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	m, err := fs.load()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

// Set stores value under key and rewrites the file atomically.
func (fs *SecureFileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	m, err := fs.load()
	if err != nil {
		return err
	}
	m[key] = value
	return fs.save(m)
}

// Delete removes key. A missing key is not an error.
func (fs *SecureFileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	m, err := fs.load()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return fs.save(m)
}

// Close wipes the derived key.
func (fs *SecureFileStore) Close() error {
	fs.seal.wipe()
	return nil
}

// Path returns the location of the encrypted file.
func (fs *SecureFileStore) Path() string { return fs.path }

func (fs *SecureFileStore) load() (map[string]string, error) {
	b, err := readFile(fs.path)
	if err != nil {
		return nil, fmt.Errorf("read secure storage: %w", err)
	}
	if b == nil {
		return map[string]string{}, nil
	}
	env, err := decodeEnvelope(b)
	if err != nil {
		return nil, err
	}
	return fs.openEnvelope(env)
}

func (fs *SecureFileStore) openEnvelope(env fileEnvelope) (map[string]string, error) {
	raw, err := fs.seal.open(env.Cipher, fileAD)
	if err != nil {
		return nil, err
	}
	m := map[string]string{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode secure storage: %w", err)
	}
	return m, nil
}

func (fs *SecureFileStore) save(m map[string]string) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	ct, err := fs.seal.seal(raw, fileAD)
	if err != nil {
		return err
	}
	b, err := json.Marshal(fileEnvelope{V: formatVersion, Salt: fs.salt, kdfParams: fs.kdf, Cipher: ct})
	if err != nil {
		return err
	}
	return writeFile(fs.path, b, 0o600)
}

func decodeEnvelope(b []byte) (fileEnvelope, error) {
	var env fileEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("decode secure storage: %w", err)
	}
	if env.V > formatVersion {
		return env, fmt.Errorf("unsupported secure storage version %d", env.V)
	}
	return env, nil
}
