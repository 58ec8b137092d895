// Package bankapi is the JSON-over-HTTP client for the bank backend.
//
// Every operation returns a problem.Result and never an error: transport
// failures and non-2xx statuses go through problem.Classify, malformed
// success bodies become bad-data, and a cancelled context yields a cancelled
// result. Only wiring mistakes (no base URL, no checksum signer) fail, and
// they fail in New.
//
// Endpoints (relative to the configured base URL):
//
//	POST /auth/login               {phoneNumber, password}
//	POST /auth/refresh-tokens      {refreshToken}
//	POST /users/by-phone-number    {phoneNumber}
//	GET  /accounts/by-user-id      bearer
//	GET  /transactions/by-user-id  bearer
//	POST /transactions             bearer, signed body, Idempotency-Key
//
// Success bodies are wrapped as {"data": ...}; error bodies may carry
// {"message": ...}, which replaces the default problem message.
package bankapi
