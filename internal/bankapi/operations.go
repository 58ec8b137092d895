package bankapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"mbank/internal/crypto"
	"mbank/internal/domain"
	"mbank/internal/problem"
)

// Login exchanges credentials for a token pair and the user's profile.
func (c *Client) Login(
	ctx context.Context,
	phoneNumber domain.PhoneNumber,
	password string,
) problem.Result[domain.LoginResult] {
	const op = "login"
	creds := domain.Credentials{PhoneNumber: phoneNumber, Password: password}
	if err := creds.Validate(); err != nil {
		return local[domain.LoginResult](c, op, err)
	}
	body, err := json.Marshal(map[string]string{
		"phoneNumber": string(phoneNumber),
		"password":    password,
	})
	if err != nil {
		return local[domain.LoginResult](c, op, err)
	}
	return call(ctx, c, request{op: op, method: http.MethodPost, path: "/auth/login", body: body}, decodeLogin)
}

// RefreshTokens exchanges a refresh token for a new pair.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) problem.Result[domain.Tokens] {
	const op = "refreshTokens"
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return local[domain.Tokens](c, op, err)
	}
	return call(ctx, c, request{op: op, method: http.MethodPost, path: "/auth/refresh-tokens", body: body}, decodeRefresh)
}

// CheckPhoneNumber asks whether a customer exists before prompting for the
// password. An unknown number comes back as a not-found problem.
func (c *Client) CheckPhoneNumber(
	ctx context.Context,
	phoneNumber domain.PhoneNumber,
) problem.Result[domain.PhoneNumberStatus] {
	const op = "checkPhoneNumber"
	if err := domain.ValidatePhoneNumber(phoneNumber); err != nil {
		return local[domain.PhoneNumberStatus](c, op, err)
	}
	body, err := json.Marshal(map[string]string{"phoneNumber": string(phoneNumber)})
	if err != nil {
		return local[domain.PhoneNumberStatus](c, op, err)
	}
	r := request{op: op, method: http.MethodPost, path: "/users/by-phone-number", body: body}
	return call(ctx, c, r, decodePhoneStatus(phoneNumber))
}

// GetAccount fetches the account owned by the bearer of authToken.
func (c *Client) GetAccount(ctx context.Context, authToken string) problem.Result[domain.Account] {
	r := request{op: "getAccount", method: http.MethodGet, path: "/accounts/by-user-id", token: authToken}
	return call(ctx, c, r, decodeAccount)
}

// GetTransactions fetches the caller's full transaction history.
func (c *Client) GetTransactions(ctx context.Context, authToken string) problem.Result[[]domain.Transaction] {
	r := request{op: "getTransactions", method: http.MethodGet, path: "/transactions/by-user-id", token: authToken}
	return call(ctx, c, r, decodeTransactions)
}

// CreateTransaction validates req, signs its fields and posts it. The
// checksum is computed here, from the request being sent. Calling it after
// the signer was wiped is a programming error; it is logged at error level and
// reported as bad-data without contacting the server.
func (c *Client) CreateTransaction(
	ctx context.Context,
	authToken string,
	req domain.TransactionRequest,
) problem.Result[domain.Transaction] {
	const op = "createTransaction"
	if err := req.Validate(); err != nil {
		return local[domain.Transaction](c, op, err)
	}
	body, err := c.signedBody(TransactionPayload(req))
	if errors.Is(err, crypto.ErrSigningKeyRequired) {
		// New refuses a client without a key, so the signer was wiped
		// under a live client. That is a caller bug, not a request problem.
		c.log.Error("transaction not sent: checksum signing key is gone", "operation", op)
	}
	if err != nil {
		return local[domain.Transaction](c, op, err)
	}
	r := request{
		op:             op,
		method:         http.MethodPost,
		path:           "/transactions",
		token:          authToken,
		body:           body,
		idempotencyKey: c.newKey(),
	}
	return call(ctx, c, r, decodeTransaction)
}

// TransactionPayload returns the signed fields of req. Empty optional fields
// are omitted rather than sent as null.
func TransactionPayload(req domain.TransactionRequest) crypto.Payload {
	p := crypto.Payload{
		"account":         string(req.Account),
		"amount":          req.Amount,
		"tokenId":         req.TokenID,
		"transactionType": string(req.TransactionType),
	}
	if req.Description != "" {
		p["description"] = req.Description
	}
	if req.To != "" {
		p["to"] = string(req.To)
	}
	return p
}

// signedBody returns canonical(p + {checksum}).
func (c *Client) signedBody(p crypto.Payload) ([]byte, error) {
	digest, err := c.signer.Sign(p)
	if err != nil {
		return nil, err
	}
	out := make(crypto.Payload, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out["checksum"] = digest
	return crypto.Canonical(out)
}
