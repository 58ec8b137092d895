package crypto

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"mbank/internal/domain"
	"mbank/internal/util/memzero"
)

var (
	// ErrSigningKeyRequired is returned when no checksum key is configured.
	// It wraps domain.ErrConfiguration and must be treated as fatal.
	ErrSigningKeyRequired = fmt.Errorf("%w: checksum signing key is required", domain.ErrConfiguration)

	// ErrUnsupportedValue is returned for payload values that have no
	// canonical form (nil, nested objects, NaN, ...).
	ErrUnsupportedValue = errors.New("unsupported payload value")
)

// Payload is a flat mapping of the scalar fields of a transaction.
type Payload map[string]any

// Canonical returns the deterministic byte form of p that checksums are
// computed over.
func Canonical(p Payload) ([]byte, error) {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeValue(&buf, p[k]); err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Sign returns the lowercase hex HMAC-SHA256 of Canonical(p) under key.
func Sign(p Payload, key []byte) (string, error) {
	if len(key) == 0 {
		return "", ErrSigningKeyRequired
	}
	msg, err := Canonical(p)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the checksum of p and compares it with digest in
// constant time.
func Verify(p Payload, key []byte, digest string) (bool, error) {
	want, err := Sign(p, key)
	if err != nil {
		return false, err
	}
	return hmac.Equal([]byte(want), []byte(digest)), nil
}

// Signer holds the process-wide checksum secret.
type Signer struct {
	key []byte
}

// NewSigner returns a Signer for key. An empty key is a configuration error.
func NewSigner(key string) (*Signer, error) {
	if key == "" {
		return nil, ErrSigningKeyRequired
	}
	return &Signer{key: []byte(key)}, nil
}

// Sign computes the checksum of p.
func (s *Signer) Sign(p Payload) (string, error) { return Sign(p, s.key) }

// Verify checks digest against p.
func (s *Signer) Verify(p Payload, digest string) (bool, error) { return Verify(p, s.key, digest) }

// Fingerprint identifies the key in logs.
func (s *Signer) Fingerprint() string { return Fingerprint(s.key) }

// Wipe zeroes the key. Signing afterwards fails with ErrSigningKeyRequired;
// callers must not sign after teardown.
func (s *Signer) Wipe() {
	memzero.Zero(s.key)
	s.key = nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch v := v.(type) {
	case string:
		return writeString(buf, v)
	case bool:
		buf.WriteString(strconv.FormatBool(v))
	case int, int8, int16, int32, int64:
		buf.WriteString(strconv.FormatInt(reflect.ValueOf(v).Int(), 10))
	case uint, uint8, uint16, uint32, uint64:
		buf.WriteString(strconv.FormatUint(reflect.ValueOf(v).Uint(), 10))
	case float32:
		return writeFloat(buf, float64(v), 32)
	case float64:
		return writeFloat(buf, v, 64)
	case decimal.Decimal:
		buf.WriteString(v.String())
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return fmt.Errorf("%w: %q", ErrUnsupportedValue, string(v))
		}
		buf.WriteString(v.String())
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return nil
}

func writeFloat(buf *bytes.Buffer, f float64, bits int) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %v", ErrUnsupportedValue, f)
	}
	buf.WriteString(strconv.FormatFloat(f, 'f', -1, bits))
	return nil
}
