package mockbank_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"mbank/internal/bankapi"
	"mbank/internal/crypto"
	"mbank/internal/domain"
	"mbank/internal/mockbank"
	"mbank/internal/problem"
	"mbank/internal/services/session"
	"mbank/internal/store"
)

const checksumKey = "k1"

type env struct {
	bank   *mockbank.Bank
	url    string
	client *bankapi.Client
}

func newEnv(t *testing.T, reg prometheus.Registerer) *env {
	t.Helper()
	bank, err := mockbank.NewBank(mockbank.DefaultSeeds())
	if err != nil {
		t.Fatalf("NewBank: %v", err)
	}
	srv, err := mockbank.NewServer(bank, mockbank.Config{
		ChecksumKey: checksumKey,
		TokenSecret: "token-secret",
		Registerer:  reg,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &env{bank: bank, url: ts.URL, client: newClient(t, ts.URL, checksumKey, nil)}
}

func newClient(t *testing.T, url, key string, newKey func() string) *bankapi.Client {
	t.Helper()
	signer, err := crypto.NewSigner(key)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	c, err := bankapi.New(bankapi.Config{BaseURL: url, Signer: signer, NewIdempotencyKey: newKey})
	if err != nil {
		t.Fatalf("bankapi.New: %v", err)
	}
	return c
}

func (e *env) login(t *testing.T, phone domain.PhoneNumber) string {
	t.Helper()
	res := e.client.Login(context.Background(), phone, "Passw0rd")
	if !res.IsOK() {
		t.Fatalf("Login(%s) = %s %q", phone, res.Kind, res.Message)
	}
	return res.Data.Tokens.AccessToken
}

func (e *env) account(t *testing.T, token string) domain.Account {
	t.Helper()
	res := e.client.GetAccount(context.Background(), token)
	if !res.IsOK() {
		t.Fatalf("GetAccount = %s %q", res.Kind, res.Message)
	}
	return res.Data
}

func transfer(acc domain.Account, to domain.PhoneNumber, amount string) domain.TransactionRequest {
	return domain.TransactionRequest{
		Account:         acc.AccountNumber,
		To:              to,
		Amount:          decimal.RequireFromString(amount),
		Description:     "lunch",
		TransactionType: domain.TransactionTransfer,
		TokenID:         acc.Token,
	}
}

func TestServer_LoginFlowThroughSession(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	known := e.client.CheckPhoneNumber(ctx, "60123456789")
	if !known.IsOK() || !known.Data.Registered || known.Data.Name != "Shinly Eu" {
		t.Fatalf("CheckPhoneNumber(known) = %s %+v", known.Kind, known.Data)
	}
	unknown := e.client.CheckPhoneNumber(ctx, "60100000000")
	if unknown.Kind != problem.KindNotFound || unknown.Message != "User not found" {
		t.Fatalf("CheckPhoneNumber(unknown) = %s %q", unknown.Kind, unknown.Message)
	}

	st := store.NewMemoryStore()
	s := session.New(e.client, st, nil)
	if err := s.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}

	bad, err := s.Login(ctx, "60123456789", "Wrongpass1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if bad.Kind != problem.KindUnauthorized || bad.Message != "Invalid phone number or password" {
		t.Fatalf("Login(bad password) = %s %q", bad.Kind, bad.Message)
	}

	res, err := s.Login(ctx, "60123456789", "Passw0rd")
	if err != nil || !res.IsOK() {
		t.Fatalf("Login = %s, %v", res.Kind, err)
	}
	if s.State() != session.StateAuthenticated || s.Session().FullName != "Shinly Eu" {
		t.Fatalf("session = %s %+v", s.State(), s.Session())
	}
	if v, ok, _ := st.Get(ctx, domain.KeyAuthToken); !ok || v != s.Session().AuthToken {
		t.Fatal("auth token not persisted")
	}

	refreshed, err := s.Refresh(ctx)
	if err != nil || !refreshed.IsOK() {
		t.Fatalf("Refresh = %s, %v", refreshed.Kind, err)
	}

	token, gen := s.Token()
	acc := e.account(t, token)
	if ok, err := s.ApplyAccount(ctx, gen, acc); err != nil || !ok {
		t.Fatalf("ApplyAccount = %v, %v", ok, err)
	}
	s.SetLocallyAuthenticated(true)
	bal, ok, err := s.Balance(ctx)
	if err != nil || !ok || !bal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("Balance = %s, %v, %v", bal, ok, err)
	}
}

func TestServer_Transfer(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	token := e.login(t, "60123456789")
	acc := e.account(t, token)

	res := e.client.CreateTransaction(ctx, token, transfer(acc, "60198765432", "10.50"))
	if !res.IsOK() {
		t.Fatalf("CreateTransaction = %s %q", res.Kind, res.Message)
	}
	if res.Data.Status != domain.StatusSuccess || !res.Data.Amount.Equal(decimal.RequireFromString("10.5")) {
		t.Fatalf("transaction = %+v", res.Data)
	}

	if got := e.account(t, token).Balance; !got.Equal(decimal.RequireFromString("89.5")) {
		t.Fatalf("sender balance = %s", got)
	}
	aliToken := e.login(t, "60198765432")
	if got := e.account(t, aliToken).Balance; !got.Equal(decimal.RequireFromString("260.5")) {
		t.Fatalf("recipient balance = %s", got)
	}

	for _, tok := range []string{token, aliToken} {
		hist := e.client.GetTransactions(ctx, tok)
		if !hist.IsOK() || len(hist.Data) != 1 || hist.Data[0].TransactionID != res.Data.TransactionID {
			t.Fatalf("history = %s %+v", hist.Kind, hist.Data)
		}
	}
}

func TestServer_TransactionRejections(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	token := e.login(t, "60123456789")
	acc := e.account(t, token)

	cases := []struct {
		name    string
		client  *bankapi.Client
		token   string
		req     domain.TransactionRequest
		kind    problem.Kind
		message string
	}{
		{"insufficient balance", e.client, token, transfer(acc, "60198765432", "1000"), problem.KindRejected, "Insufficient balance"},
		{"unknown recipient", e.client, token, transfer(acc, "60100000000", "1"), problem.KindNotFound, "Recipient not found"},
		{"missing recipient", e.client, token, transfer(acc, "", "1"), problem.KindRejected, "Transfer requires a recipient phone number"},
		{"wrong checksum key", newClient(t, e.url, "not-the-key", nil), token, transfer(acc, "60198765432", "1"), problem.KindRejected, "Invalid checksum"},
		{"bad token", e.client, "garbage", transfer(acc, "60198765432", "1"), problem.KindUnauthorized, "Invalid or expired token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := tc.client.CreateTransaction(ctx, tc.token, tc.req)
			if res.Kind != tc.kind || res.Message != tc.message {
				t.Fatalf("got %s %q, want %s %q", res.Kind, res.Message, tc.kind, tc.message)
			}
		})
	}

	if got := e.account(t, token).Balance; !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance changed by rejected requests: %s", got)
	}
}

func TestServer_FrozenAccount(t *testing.T) {
	e := newEnv(t, nil)
	token := e.login(t, "60111222333")
	acc := e.account(t, token)
	if acc.IsActive {
		t.Fatal("seeded account should be frozen")
	}

	res := e.client.CreateTransaction(context.Background(), token, transfer(acc, "60123456789", "5"))
	if res.Kind != problem.KindForbidden || res.Message != "Account frozen" {
		t.Fatalf("got %s %q", res.Kind, res.Message)
	}
	if !res.Kind.RequiresReauth() {
		t.Fatal("forbidden should require re-authentication")
	}
}

func TestServer_IdempotencyKey(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	token := e.login(t, "60123456789")
	acc := e.account(t, token)

	c := newClient(t, e.url, checksumKey, func() string { return "same-key" })
	first := c.CreateTransaction(ctx, token, transfer(acc, "60198765432", "10"))
	second := c.CreateTransaction(ctx, token, transfer(acc, "60198765432", "10"))
	if !first.IsOK() || !second.IsOK() || first.Data.TransactionID != second.Data.TransactionID {
		t.Fatalf("replay: %s/%s ids %q %q", first.Kind, second.Kind, first.Data.TransactionID, second.Data.TransactionID)
	}
	if got := e.account(t, token).Balance; !got.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("balance after replay = %s, want 90", got)
	}

	reused := c.CreateTransaction(ctx, token, transfer(acc, "60198765432", "20"))
	if reused.Kind != problem.KindRejected || !strings.Contains(reused.Message, "Idempotency key") {
		t.Fatalf("key reuse = %s %q", reused.Kind, reused.Message)
	}
}

func TestBank_Reserve_DuplicateWhilePending(t *testing.T) {
	bank, err := mockbank.NewBank(mockbank.DefaultSeeds())
	if err != nil {
		t.Fatalf("NewBank: %v", err)
	}
	const phone = "60123456789"
	body := []byte(`{"amount":1}`)

	if _, replayed, err := bank.Reserve(phone, "k", body); err != nil || replayed {
		t.Fatalf("first Reserve = %v, %v", replayed, err)
	}
	// A second request with the key must not run while the first is in flight.
	if _, _, err := bank.Reserve(phone, "k", body); !errors.Is(err, mockbank.ErrIdempotencyConflict) {
		t.Fatalf("second Reserve err = %v, want ErrIdempotencyConflict", err)
	}

	bank.Release(phone, "k")
	if _, replayed, err := bank.Reserve(phone, "k", body); err != nil || replayed {
		t.Fatalf("Reserve after Release = %v, %v", replayed, err)
	}
	bank.Remember(phone, "k", mockbank.Outcome{Status: 201, Body: []byte(`{"data":{}}`)})

	o, replayed, err := bank.Reserve(phone, "k", body)
	if err != nil || !replayed || o.Status != 201 {
		t.Fatalf("Reserve after Remember = %+v, %v, %v", o, replayed, err)
	}
	if _, _, err := bank.Reserve(phone, "k", []byte(`{"amount":2}`)); !errors.Is(err, mockbank.ErrIdempotencyMismatch) {
		t.Fatalf("Reserve with other body err = %v, want ErrIdempotencyMismatch", err)
	}
}

func TestServer_IdempotencyKey_Concurrent(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	token := e.login(t, "60123456789")
	acc := e.account(t, token)
	c := newClient(t, e.url, checksumKey, func() string { return "shared-key" })

	const n = 8
	results := make([]problem.Result[domain.Transaction], n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.CreateTransaction(ctx, token, transfer(acc, "60198765432", "1"))
		}()
	}
	wg.Wait()

	for i, res := range results {
		if res.IsOK() {
			continue
		}
		if res.Kind != problem.KindRejected || !strings.Contains(res.Message, "in progress") {
			t.Fatalf("request %d = %s %q", i, res.Kind, res.Message)
		}
	}
	if got := e.account(t, token).Balance; !got.Equal(decimal.NewFromInt(99)) {
		t.Fatalf("balance = %s, want 99 (one debit)", got)
	}
}

func TestServer_RefreshTokens(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	login := e.client.Login(ctx, "60123456789", "Passw0rd")
	if !login.IsOK() {
		t.Fatalf("Login = %s", login.Kind)
	}

	res := e.client.RefreshTokens(ctx, login.Data.Tokens.RefreshToken)
	if !res.IsOK() || res.Data.AccessToken == "" {
		t.Fatalf("RefreshTokens = %s %q", res.Kind, res.Message)
	}
	e.account(t, res.Data.AccessToken)

	if res := e.client.RefreshTokens(ctx, login.Data.Tokens.AccessToken); res.Kind != problem.KindUnauthorized {
		t.Fatalf("refresh with access token = %s", res.Kind)
	}
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := newEnv(t, reg)
	e.login(t, "60123456789")

	want := `
# HELP mockbank_http_requests_total Total HTTP requests
# TYPE mockbank_http_requests_total counter
mockbank_http_requests_total{method="POST",route="/auth/login",status="200"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "mockbank_http_requests_total"); err != nil {
		t.Fatalf("metrics: %v", err)
	}
}
