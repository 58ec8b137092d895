package types

import "errors"

// Config errors (deployment defects, always fatal)
var (
	ErrConfiguration = errors.New("configuration error")
)

// Validation errors (client input)
var (
	ErrInvalidPhoneNumber     = errors.New("please input valid phone number")
	ErrInvalidPassword        = errors.New("password must have at least 8 characters including a letter and a number")
	ErrInvalidAmount          = errors.New("amount must be a positive number")
	ErrAmountBelowMinimum     = errors.New("amount is below the minimum transfer amount")
	ErrAmountAboveMaximum     = errors.New("amount exceeds the maximum transfer amount")
	ErrInvalidTransactionType = errors.New("transaction type must be transfer or reload")
	ErrRecipientRequired      = errors.New("transfer requires a recipient phone number")
	ErrAccountRequired        = errors.New("source account is required")
	ErrTokenIDRequired        = errors.New("payment token id is required")
)
