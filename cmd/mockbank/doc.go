// Package main runs mockbank, the in-memory bank server used by mbank during
// development and tests.
//
// HTTP API (under /v1)
//
//	POST /auth/login                  { phoneNumber, password }
//	POST /auth/refresh-tokens         { refreshToken }
//	POST /users/by-phone-number       { phoneNumber }
//	GET  /accounts/by-user-id         bearer token
//	GET  /transactions/by-user-id     bearer token
//	POST /transactions                bearer token, signed body, Idempotency-Key
//
// Outside the API prefix
//
//	GET /health    liveness
//	GET /metrics   Prometheus exposition
//
// Behaviour
//
//   - State lives in memory and is seeded with a few demo customers.
//   - Transaction bodies are rejected unless their checksum verifies with the
//     shared key (MBANK_CHECKSUM_KEY).
//   - Requests repeating an Idempotency-Key replay the first response.
//   - The default listen address is :8080.
package main
