package mockbank

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"mbank/internal/domain"
)

// Error is a business failure together with the status it is reported with.
// Message is sent to the client verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrBadCredentials      = &Error{http.StatusUnauthorized, "Invalid phone number or password"}
	ErrUserNotFound        = &Error{http.StatusNotFound, "User not found"}
	ErrRecipientNotFound   = &Error{http.StatusNotFound, "Recipient not found"}
	ErrNotAccountOwner     = &Error{http.StatusForbidden, "Account does not belong to user"}
	ErrAccountFrozen       = &Error{http.StatusForbidden, "Account frozen"}
	ErrInvalidTokenID      = &Error{http.StatusUnprocessableEntity, "Invalid token id"}
	ErrInsufficientBalance = &Error{http.StatusUnprocessableEntity, "Insufficient balance"}
	ErrSelfTransfer        = &Error{http.StatusUnprocessableEntity, "Cannot transfer to own account"}
	ErrIdempotencyMismatch = &Error{http.StatusUnprocessableEntity, "Idempotency key reused with a different request"}
	ErrIdempotencyConflict = &Error{http.StatusConflict, "Request with this idempotency key is in progress"}
	ErrRecipientRequired   = &Error{http.StatusUnprocessableEntity, "Transfer requires a recipient phone number"}
)

// Seed describes a customer and their account.
type Seed struct {
	Name          string
	PhoneNumber   string
	Password      string
	AccountNumber string
	Balance       decimal.Decimal
	Frozen        bool
}

// DefaultSeeds are the customers a fresh development server knows about.
func DefaultSeeds() []Seed {
	return []Seed{
		{Name: "Shinly Eu", PhoneNumber: "60123456789", Password: "Passw0rd", AccountNumber: "1000200030", Balance: decimal.RequireFromString("100.00")},
		{Name: "Ali Bin Abu", PhoneNumber: "60198765432", Password: "Passw0rd", AccountNumber: "1000200031", Balance: decimal.RequireFromString("250.00")},
		{Name: "Tan Mei Ling", PhoneNumber: "60111222333", Password: "Passw0rd", AccountNumber: "1000200032", Balance: decimal.RequireFromString("500.00"), Frozen: true},
	}
}

type customer struct {
	name    string
	phone   string
	pwHash  []byte
	account *domain.Account
}

type replay struct {
	hash    string
	pending bool
	status  int
	body    []byte
}

// Bank holds customers, accounts and the transaction log.
type Bank struct {
	mu           sync.RWMutex
	customers    map[string]*customer
	transactions []domain.Transaction
	replays      map[string]replay
}

// NewBank hashes the seed passwords and opens one account per seed.
func NewBank(seeds []Seed) (*Bank, error) {
	b := &Bank{
		customers: make(map[string]*customer),
		replays:   make(map[string]replay),
	}
	for _, s := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), bcrypt.MinCost)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", s.PhoneNumber, err)
		}
		b.customers[s.PhoneNumber] = &customer{
			name:   s.Name,
			phone:  s.PhoneNumber,
			pwHash: hash,
			account: &domain.Account{
				AccountName:      s.Name,
				AccountNumber:    domain.AccountNumber(s.AccountNumber),
				AccountType:      "savings",
				Currency:         "MYR",
				Balance:          s.Balance,
				IsActive:         !s.Frozen,
				Token:            uuid.NewString(),
				Provider:         "mockbank",
				Preferred:        "true",
				AuthorizedAmount: s.Balance,
				User:             s.PhoneNumber,
			},
		}
	}
	return b, nil
}

// Authenticate checks a password and returns the customer's name.
func (b *Bank) Authenticate(phone, password string) (string, error) {
	b.mu.RLock()
	c, ok := b.customers[phone]
	b.mu.RUnlock()
	if !ok {
		return "", ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(c.pwHash, []byte(password)); err != nil {
		return "", ErrBadCredentials
	}
	return c.name, nil
}

// Lookup returns the name registered for phone.
func (b *Bank) Lookup(phone string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.customers[phone]
	if !ok {
		return "", ErrUserNotFound
	}
	return c.name, nil
}

// Account returns a copy of the customer's account.
func (b *Bank) Account(phone string) (domain.Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.customers[phone]
	if !ok {
		return domain.Account{}, ErrUserNotFound
	}
	return *c.account, nil
}

// Freeze marks an account inactive.
func (b *Bank) Freeze(phone string, frozen bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.customers[phone]
	if !ok {
		return ErrUserNotFound
	}
	c.account.IsActive = !frozen
	return nil
}

// History returns the transactions touching the customer's account, newest first.
func (b *Bank) History(phone string) ([]domain.Transaction, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.customers[phone]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := make([]domain.Transaction, 0)
	for _, t := range b.transactions {
		if t.Account == c.account.AccountNumber || (t.To == domain.PhoneNumber(phone) && t.TransactionType == domain.TransactionTransfer) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Outcome is the HTTP answer recorded for an idempotency key.
type Outcome struct {
	Status int
	Body   []byte
}

// Reserve claims key for one execution of body. If the key already has an
// answer it is returned with replayed set. A key still being executed yields
// ErrIdempotencyConflict, and a key seen with another body yields
// ErrIdempotencyMismatch. An empty key reserves nothing.
func (b *Bank) Reserve(phone, key string, body []byte) (o Outcome, replayed bool, err error) {
	if key == "" {
		return Outcome{}, false, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	id := phone + ":" + key
	r, ok := b.replays[id]
	if !ok {
		b.replays[id] = replay{hash: bodyHash(body), pending: true}
		return Outcome{}, false, nil
	}
	if r.hash != bodyHash(body) {
		return Outcome{}, false, ErrIdempotencyMismatch
	}
	if r.pending {
		return Outcome{}, false, ErrIdempotencyConflict
	}
	return Outcome{Status: r.status, Body: r.body}, true, nil
}

// Remember stores the answer for a reserved key.
func (b *Bank) Remember(phone, key string, o Outcome) {
	if key == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := phone + ":" + key
	r, ok := b.replays[id]
	if !ok || !r.pending {
		return
	}
	b.replays[id] = replay{hash: r.hash, status: o.Status, body: o.Body}
}

// Release drops a reservation whose execution failed, so the key can be
// retried.
func (b *Bank) Release(phone, key string) {
	if key == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := phone + ":" + key
	if r, ok := b.replays[id]; ok && r.pending {
		delete(b.replays, id)
	}
}

// Execute applies t on behalf of the customer owning phone.
func (b *Bank) Execute(phone string, t domain.TransactionRequest) (domain.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.customers[phone]
	if !ok {
		return domain.Transaction{}, ErrUserNotFound
	}
	acc := c.account
	if acc.AccountNumber != t.Account {
		return domain.Transaction{}, ErrNotAccountOwner
	}
	if !acc.IsActive {
		return domain.Transaction{}, ErrAccountFrozen
	}
	if acc.Token != t.TokenID {
		return domain.Transaction{}, ErrInvalidTokenID
	}

	var recipient *customer
	if t.TransactionType == domain.TransactionTransfer {
		if t.To == "" {
			return domain.Transaction{}, ErrRecipientRequired
		}
		if recipient, ok = b.customers[string(t.To)]; !ok {
			return domain.Transaction{}, ErrRecipientNotFound
		}
		if recipient == c {
			return domain.Transaction{}, ErrSelfTransfer
		}
	}
	if acc.Balance.LessThan(t.Amount) {
		return domain.Transaction{}, ErrInsufficientBalance
	}

	acc.Balance = acc.Balance.Sub(t.Amount)
	acc.AuthorizedAmount = acc.Balance
	if recipient != nil {
		recipient.account.Balance = recipient.account.Balance.Add(t.Amount)
		recipient.account.AuthorizedAmount = recipient.account.Balance
	}

	trx := domain.Transaction{
		TransactionID:   uuid.NewString(),
		Account:         t.Account,
		Amount:          t.Amount,
		TransactionType: t.TransactionType,
		Status:          domain.StatusSuccess,
		TokenID:         t.TokenID,
		To:              t.To,
		Description:     t.Description,
		CreatedAt:       time.Now().UTC(),
	}
	b.transactions = append(b.transactions, trx)
	return trx, nil
}

func bodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
