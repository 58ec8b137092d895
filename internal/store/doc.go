// Package store provides the secure key/value storage behind the session.
//
// All implementations satisfy domain.SecureStore and are safe for concurrent
// use. Values are small strings (tokens, a balance) keyed by the names in
// domain (authToken, refreshToken, balance).
//
// The package includes:
//   - SecureFileStore: one encrypted file under the user's home directory
//   - RedisStore: encrypted values in Redis, for shared deployments
//   - MemoryStore: process-local map, for tests and throwaway runs
//
// The encrypted stores derive a key once from a passphrase with scrypt and
// seal every value with XChaCha20-Poly1305 under a fresh random nonce.
package store
