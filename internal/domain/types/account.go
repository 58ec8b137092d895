package types

import "github.com/shopspring/decimal"

// Account is the single account owned by the authenticated user.
type Account struct {
	AccountName      string          `json:"accountName"`
	AccountNumber    AccountNumber   `json:"accountNumber"`
	AccountType      string          `json:"accountType"`
	Currency         string          `json:"currency"`
	Balance          decimal.Decimal `json:"balance"`
	IsActive         bool            `json:"isActive"`
	Token            string          `json:"token"`
	Provider         string          `json:"provider"`
	Preferred        string          `json:"preferred"`
	AuthorizedAmount decimal.Decimal `json:"authorizedAmount"`
	User             string          `json:"user"`
}
