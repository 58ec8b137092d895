package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"mbank/internal/domain"
	"mbank/internal/problem"
)

// State is where the session is in its lifecycle.
type State int

const (
	// StateUnknown is the state before Hydrate has finished.
	StateUnknown State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Generation changes whenever the session's identity changes.
type Generation uint64

var (
	// ErrLocalAuthRequired is returned by Balance until the user has
	// re-authenticated on this device.
	ErrLocalAuthRequired = errors.New("local authentication required")
)

const msgNoRefreshToken = "No refresh token"

// persistedKeys are removed from secure storage on logout.
var persistedKeys = []string{domain.KeyAuthToken, domain.KeyRefreshToken, domain.KeyBalance}

// Store is the session state machine. Construct one per process with New.
type Store struct {
	api     domain.AuthAPI
	storage domain.SecureStore
	log     *slog.Logger

	// mutate serialises persist-then-apply sequences.
	mutate sync.Mutex

	mu       sync.RWMutex
	state    State
	sess     domain.Session
	gen      Generation
	failures int
	torn     bool

	ready     chan struct{}
	readyOnce sync.Once
}

// New returns a Store in StateUnknown. Call Hydrate before use.
func New(api domain.AuthAPI, storage domain.SecureStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		api:     api,
		storage: storage,
		log:     logger.With("component", "session"),
		ready:   make(chan struct{}),
	}
}

// Hydrate loads persisted tokens. A storage failure leaves the session
// unauthenticated and is returned. Ready is closed either way.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mutate.Lock()
	defer s.mutate.Unlock()
	defer s.markReady()

	token, _, err := s.storage.Get(ctx, domain.KeyAuthToken)
	if err != nil {
		s.clear()
		return fmt.Errorf("hydrate %s: %w", domain.KeyAuthToken, err)
	}
	refresh, _, err := s.storage.Get(ctx, domain.KeyRefreshToken)
	if err != nil {
		s.clear()
		return fmt.Errorf("hydrate %s: %w", domain.KeyRefreshToken, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torn {
		return nil
	}
	if token == "" {
		s.sess = domain.Session{}
		s.state = StateUnauthenticated
		return nil
	}
	s.sess = domain.Session{AuthToken: token, RefreshToken: refresh}
	s.state = StateAuthenticated
	s.log.Debug("session hydrated", "authenticated", true)
	return nil
}

// Ready is closed once Hydrate has completed.
func (s *Store) Ready() <-chan struct{} { return s.ready }

// WaitReady blocks until Hydrate has completed or ctx is done.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) markReady() { s.readyOnce.Do(func() { close(s.ready) }) }

// Login authenticates with the backend. On ok both tokens are persisted and
// then applied together with the user's name and phone number. A problem
// leaves the session untouched and is returned as is. The error is reserved
// for secure-storage failures.
func (s *Store) Login(
	ctx context.Context,
	phoneNumber domain.PhoneNumber,
	password string,
) (problem.Result[domain.LoginResult], error) {
	gen := s.generation()

	res := s.api.Login(ctx, phoneNumber, password)
	if !res.IsOK() {
		if _, failed := res.Problem(); failed {
			s.mu.Lock()
			s.failures++
			s.mu.Unlock()
		}
		return res, nil
	}

	s.mutate.Lock()
	defer s.mutate.Unlock()

	if s.stale(gen) {
		s.log.Info("discarding stale login response")
		return problem.Cancelled[domain.LoginResult](), nil
	}
	if err := s.persistTokens(ctx, res.Data.Tokens, s.tokens()); err != nil {
		return problem.Cancelled[domain.LoginResult](), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = domain.Session{
		AuthToken:    res.Data.Tokens.AccessToken,
		RefreshToken: res.Data.Tokens.RefreshToken,
		PhoneNumber:  phoneNumber,
		FullName:     res.Data.User.Name,
	}
	s.state = StateAuthenticated
	s.gen++
	s.failures = 0
	s.log.Info("logged in")
	return res, nil
}

// Refresh exchanges the refresh token for a new pair and applies it under
// the same rules as Login.
func (s *Store) Refresh(ctx context.Context) (problem.Result[domain.Tokens], error) {
	s.mu.RLock()
	prev := domain.Tokens{AccessToken: s.sess.AuthToken, RefreshToken: s.sess.RefreshToken}
	gen := s.gen
	s.mu.RUnlock()
	refresh := prev.RefreshToken
	if refresh == "" {
		return problem.Fail[domain.Tokens](problem.New(problem.KindUnauthorized, msgNoRefreshToken)), nil
	}

	res := s.api.RefreshTokens(ctx, refresh)
	if !res.IsOK() {
		return res, nil
	}

	s.mutate.Lock()
	defer s.mutate.Unlock()

	if s.stale(gen) {
		s.log.Info("discarding stale refresh response")
		return problem.Cancelled[domain.Tokens](), nil
	}
	if err := s.persistTokens(ctx, res.Data, prev); err != nil {
		return problem.Cancelled[domain.Tokens](), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.AuthToken = res.Data.AccessToken
	s.sess.RefreshToken = res.Data.RefreshToken
	s.state = StateAuthenticated
	s.gen++
	return res, nil
}

// Logout clears the session in memory and then removes persisted tokens and
// balance. Storage failures are logged; memory is cleared regardless.
func (s *Store) Logout(ctx context.Context) {
	s.mutate.Lock()
	defer s.mutate.Unlock()

	s.mu.Lock()
	if s.torn {
		s.mu.Unlock()
		return
	}
	s.sess = domain.Session{}
	s.state = StateUnauthenticated
	s.gen++
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	for _, key := range persistedKeys {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.log.Warn("logout: delete from secure storage failed", "key", key, "err", err)
		}
	}
	s.log.Info("logged out")
}

// SetPhoneNumber records the phone number entered on the first login step.
func (s *Store) SetPhoneNumber(p domain.PhoneNumber) {
	s.set(func(sess *domain.Session) { sess.PhoneNumber = p })
}

// SetAccountNumber records the account transactions are drawn from.
func (s *Store) SetAccountNumber(n domain.AccountNumber) {
	s.set(func(sess *domain.Session) { sess.AccountNumber = n })
}

// SetTokenID records the payment token id sent with transactions.
func (s *Store) SetTokenID(id string) {
	s.set(func(sess *domain.Session) { sess.TokenID = id })
}

// SetFullName records the display name.
func (s *Store) SetFullName(name string) {
	s.set(func(sess *domain.Session) { sess.FullName = name })
}

// SetLocallyAuthenticated records that the user passed the on-device check
// that guards the balance.
func (s *Store) SetLocallyAuthenticated(ok bool) {
	s.set(func(sess *domain.Session) { sess.LocallyAuthenticated = ok })
}

// SetBalance persists the last confirmed balance.
func (s *Store) SetBalance(ctx context.Context, balance decimal.Decimal) error {
	s.mutate.Lock()
	defer s.mutate.Unlock()
	return s.persistBalance(ctx, balance)
}

// Balance reads the last persisted balance from secure storage. It requires
// local authentication; ok is false when nothing was stored yet.
func (s *Store) Balance(ctx context.Context) (balance decimal.Decimal, ok bool, err error) {
	s.mu.RLock()
	local := s.sess.LocallyAuthenticated
	s.mu.RUnlock()
	if !local {
		return decimal.Zero, false, ErrLocalAuthRequired
	}

	v, found, err := s.storage.Get(ctx, domain.KeyBalance)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("read balance: %w", err)
	}
	if !found {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("stored balance %q: %w", v, err)
	}
	return d, true, nil
}

// Token returns the bearer token and the generation it belongs to.
func (s *Store) Token() (string, Generation) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.AuthToken, s.gen
}

// ApplyAccount stores what a getAccount call learned, unless the session has
// changed since gen was read. It reports whether the account was applied.
func (s *Store) ApplyAccount(ctx context.Context, gen Generation, acc domain.Account) (bool, error) {
	s.mutate.Lock()
	defer s.mutate.Unlock()

	if s.stale(gen) {
		s.log.Info("discarding stale account response")
		return false, nil
	}
	if err := s.persistBalance(ctx, acc.Balance); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.AccountNumber = acc.AccountNumber
	s.sess.TokenID = acc.Token
	if s.sess.FullName == "" {
		s.sess.FullName = acc.AccountName
	}
	return true, nil
}

// Session returns a snapshot of the current session.
func (s *Store) Session() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated is derived from the presence of an auth token.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.IsAuthenticated()
}

// LoginFailures counts consecutive failed login attempts.
func (s *Store) LoginFailures() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failures
}

// Teardown wipes the in-memory session without touching storage. Later
// mutations are ignored.
func (s *Store) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = domain.Session{}
	s.state = StateUnknown
	s.gen++
	s.torn = true
	s.markReady()
}

func (s *Store) generation() Generation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

func (s *Store) stale(gen Generation) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.torn || s.gen != gen
}

func (s *Store) set(fn func(*domain.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torn {
		return
	}
	fn(&s.sess)
}

func (s *Store) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torn {
		return
	}
	s.sess = domain.Session{}
	s.state = StateUnauthenticated
}

func (s *Store) tokens() domain.Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Tokens{AccessToken: s.sess.AuthToken, RefreshToken: s.sess.RefreshToken}
}

// persistTokens writes both tokens. If the second write fails the auth token
// is put back to prev so storage never holds half a pair. Callers hold mutate.
func (s *Store) persistTokens(ctx context.Context, t, prev domain.Tokens) error {
	if err := s.storage.Set(ctx, domain.KeyAuthToken, t.AccessToken); err != nil {
		return fmt.Errorf("persist %s: %w", domain.KeyAuthToken, err)
	}
	if err := s.storage.Set(ctx, domain.KeyRefreshToken, t.RefreshToken); err != nil {
		rctx := context.WithoutCancel(ctx)
		var rerr error
		if prev.AccessToken != "" {
			rerr = s.storage.Set(rctx, domain.KeyAuthToken, prev.AccessToken)
		} else {
			rerr = s.storage.Delete(rctx, domain.KeyAuthToken)
		}
		if rerr != nil {
			s.log.Warn("rollback of auth token failed", "err", rerr)
		}
		return fmt.Errorf("persist %s: %w", domain.KeyRefreshToken, err)
	}
	return nil
}

// Callers hold mutate.
func (s *Store) persistBalance(ctx context.Context, balance decimal.Decimal) error {
	if err := s.storage.Set(ctx, domain.KeyBalance, balance.String()); err != nil {
		return fmt.Errorf("persist %s: %w", domain.KeyBalance, err)
	}
	return nil
}
