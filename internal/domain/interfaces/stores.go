package interfaces

import "context"

// SecureStore is the process-wide key/value store for secrets.
//
// Get reports ok=false for a missing key. Deleting a missing key is not an
// error. Writers to the same key are serialised by the implementation.
type SecureStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
