package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tags what a transaction does to the account.
type TransactionType string

const (
	TransactionTransfer TransactionType = "transfer"
	TransactionReload   TransactionType = "reload"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionTransfer || t == TransactionReload
}

// TransactionStatus is the backend lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusSuccess   TransactionStatus = "success"
	StatusCancelled TransactionStatus = "cancelled"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is a record from the caller's transaction history.
type Transaction struct {
	TransactionID   string            `json:"transactionId"`
	Account         AccountNumber     `json:"account"`
	Amount          decimal.Decimal   `json:"amount"`
	TransactionType TransactionType   `json:"transactionType"`
	Status          TransactionStatus `json:"status"`
	ErrorCode       string            `json:"errorCode,omitempty"`
	ErrorMessage    string            `json:"errorMessage,omitempty"`
	TokenID         string            `json:"tokenId"`
	To              PhoneNumber       `json:"to,omitempty"`
	Description     string            `json:"description,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// Transfer limits applied before a request leaves the device.
var (
	MinTransferAmount     = decimal.NewFromInt(1)
	DefaultMaxTransferCap = decimal.NewFromInt(100000)
)

// TransactionRequest is the payload of a money-movement operation. The
// checksum is not part of it: it is computed from these fields right before
// the request is sent.
type TransactionRequest struct {
	Account         AccountNumber
	To              PhoneNumber
	Amount          decimal.Decimal
	Description     string
	TransactionType TransactionType
	TokenID         string
}

// Validate checks the invariants every request must satisfy regardless of
// the account it is drawn from.
func (r TransactionRequest) Validate() error {
	if r.Account == "" {
		return ErrAccountRequired
	}
	if r.TokenID == "" {
		return ErrTokenIDRequired
	}
	if !r.TransactionType.Valid() {
		return ErrInvalidTransactionType
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if r.To != "" {
		if err := ValidatePhoneNumber(r.To); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLimits checks the amount against the minimum transfer and a
// caller-supplied maximum (usually the available balance). A zero max falls
// back to DefaultMaxTransferCap.
func (r TransactionRequest) ValidateLimits(max decimal.Decimal) error {
	if !max.IsPositive() {
		max = DefaultMaxTransferCap
	}
	if r.Amount.LessThan(MinTransferAmount) {
		return ErrAmountBelowMinimum
	}
	if r.Amount.GreaterThan(max) {
		return ErrAmountAboveMaximum
	}
	return nil
}
