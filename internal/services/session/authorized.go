package session

import (
	"context"

	"mbank/internal/problem"
)

// Authorized runs fn with the current bearer token. An unauthorized result is
// retried once after exchanging the refresh token; when the refresh itself
// fails, its problem is returned so the caller can decide whether to log out.
// The generation returned belongs to the token fn last ran with.
func Authorized[T any](
	ctx context.Context,
	s *Store,
	fn func(authToken string) problem.Result[T],
) (problem.Result[T], Generation, error) {
	token, gen := s.Token()
	res := fn(token)
	if res.Kind != problem.KindUnauthorized {
		return res, gen, nil
	}

	refreshed, err := s.Refresh(ctx)
	if err != nil {
		return res, gen, err
	}
	if refreshed.IsCancelled() {
		return problem.Cancelled[T](), gen, nil
	}
	if p, failed := refreshed.Problem(); failed {
		s.log.Info("token refresh failed", "kind", p.Kind.String())
		return problem.Fail[T](p), gen, nil
	}

	token, gen = s.Token()
	return fn(token), gen, nil
}
