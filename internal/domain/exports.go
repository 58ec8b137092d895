package domain

import (
	interfaces "mbank/internal/domain/interfaces"
	types "mbank/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	PhoneNumber        = types.PhoneNumber
	AccountNumber      = types.AccountNumber
	Session            = types.Session
	Tokens             = types.Tokens
	User               = types.User
	LoginResult        = types.LoginResult
	PhoneNumberStatus  = types.PhoneNumberStatus
	Credentials        = types.Credentials
	Account            = types.Account
	Transaction        = types.Transaction
	TransactionRequest = types.TransactionRequest
	TransactionType    = types.TransactionType
	TransactionStatus  = types.TransactionStatus
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	AuthAPI     = interfaces.AuthAPI
	BankAPI     = interfaces.BankAPI
	SecureStore = interfaces.SecureStore
)

const (
	KeyAuthToken    = types.KeyAuthToken
	KeyRefreshToken = types.KeyRefreshToken
	KeyBalance      = types.KeyBalance

	TransactionTransfer = types.TransactionTransfer
	TransactionReload   = types.TransactionReload

	StatusPending   = types.StatusPending
	StatusSuccess   = types.StatusSuccess
	StatusCancelled = types.StatusCancelled
	StatusFailed    = types.StatusFailed
)

var (
	MinTransferAmount     = types.MinTransferAmount
	DefaultMaxTransferCap = types.DefaultMaxTransferCap

	ValidatePhoneNumber = types.ValidatePhoneNumber
	ValidatePassword    = types.ValidatePassword
)

var (
	ErrConfiguration = types.ErrConfiguration

	ErrInvalidPhoneNumber     = types.ErrInvalidPhoneNumber
	ErrInvalidPassword        = types.ErrInvalidPassword
	ErrInvalidAmount          = types.ErrInvalidAmount
	ErrAmountBelowMinimum     = types.ErrAmountBelowMinimum
	ErrAmountAboveMaximum     = types.ErrAmountAboveMaximum
	ErrInvalidTransactionType = types.ErrInvalidTransactionType
	ErrRecipientRequired      = types.ErrRecipientRequired
	ErrAccountRequired        = types.ErrAccountRequired
	ErrTokenIDRequired        = types.ErrTokenIDRequired
)
