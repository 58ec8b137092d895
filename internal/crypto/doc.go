// Package crypto holds the integrity primitives used by the banking client.
//
// Contents
//
//   - Canonical serialisation of transaction payloads (Canonical)
//   - HMAC-SHA256 checksums over that serialisation (Sign, Verify, Signer)
//   - Short key fingerprints for display/logging (Fingerprint)
//
// # Canonical form
//
// A payload is a flat map of scalars. It is rendered as a JSON object with
// keys in byte order, no whitespace, strings without HTML escaping and
// numbers in their shortest decimal form, which is what JSON.stringify
// produces for the same object with sorted keys. The server recomputes the
// checksum from the fields it receives, so the form must not depend on map
// iteration order or on the platform.
//
// # Notes
//
// Absent optional fields are omitted from the payload, never sent as null;
// nil values are rejected.
package crypto
