package commands

import (
	"context"
	"errors"
	"fmt"

	"mbank/internal/problem"
)

var errCancelled = errors.New("cancelled")

// check turns a non-ok result into an error for the user. Problems that
// need a new login clear the session first; authenticated calls reach here
// through session.Authorized, so an unauthorized result means the refresh
// token was rejected too.
func check[T any](ctx context.Context, res problem.Result[T]) error {
	if res.IsOK() {
		return nil
	}
	if res.IsCancelled() {
		return errCancelled
	}
	p, _ := res.Problem()
	switch {
	case p.Kind.RequiresReauth():
		wire.Session.Logout(ctx)
		return fmt.Errorf("%s; you have been logged out, run `mbank login`", p.Message)
	case p.Temporary:
		return fmt.Errorf("%s; please try again", p.Message)
	default:
		return errors.New(p.Message)
	}
}

func requireLogin() error {
	if !wire.Session.IsAuthenticated() {
		return errors.New("not logged in, run `mbank login <phone>`")
	}
	return nil
}
