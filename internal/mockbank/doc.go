// Package mockbank is an in-memory implementation of the bank backend, used
// for local development and end-to-end tests of the client.
//
// HTTP API
//
//	POST /auth/login               {phoneNumber, password}
//	    Check the password and issue an access/refresh token pair.
//
//	POST /auth/refresh-tokens      {refreshToken}
//	    Exchange a refresh token for a new pair.
//
//	POST /users/by-phone-number    {phoneNumber}
//	    200 with the customer's name, 404 when the number is unknown.
//
//	GET /accounts/by-user-id       (bearer)
//	    The caller's account.
//
//	GET /transactions/by-user-id   (bearer)
//	    The caller's history, newest first.
//
//	POST /transactions             (bearer, checksum, Idempotency-Key)
//	    Verify the checksum against the received fields, then move money.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Success bodies are {"data": ...}; failures are {"message": ...}.
//   - Passwords are stored as bcrypt hashes; tokens are HS256 JWTs.
//   - A repeated Idempotency-Key replays the first response; reusing a key
//     for a different body is rejected with 422.
//   - Frozen accounts answer 403 "Account frozen".
package mockbank
