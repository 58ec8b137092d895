package interfaces

import (
	"context"

	domaintypes "mbank/internal/domain/types"
	"mbank/internal/problem"
)

// AuthAPI is the part of the bank backend the session store talks to.
type AuthAPI interface {
	Login(
		ctx context.Context,
		phoneNumber domaintypes.PhoneNumber,
		password string,
	) problem.Result[domaintypes.LoginResult]
	RefreshTokens(ctx context.Context, refreshToken string) problem.Result[domaintypes.Tokens]
}

// BankAPI is the full set of backend operations, each returning an envelope.
type BankAPI interface {
	AuthAPI

	CheckPhoneNumber(
		ctx context.Context,
		phoneNumber domaintypes.PhoneNumber,
	) problem.Result[domaintypes.PhoneNumberStatus]
	GetAccount(ctx context.Context, authToken string) problem.Result[domaintypes.Account]
	GetTransactions(ctx context.Context, authToken string) problem.Result[[]domaintypes.Transaction]
	CreateTransaction(
		ctx context.Context,
		authToken string,
		request domaintypes.TransactionRequest,
	) problem.Result[domaintypes.Transaction]
}
