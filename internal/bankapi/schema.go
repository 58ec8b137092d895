package bankapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"mbank/internal/domain"
)

var (
	errMissingData         = errors.New("response has no data")
	errMissingAccessToken  = errors.New("response is missing the access token")
	errMissingRefreshToken = errors.New("response is missing the refresh token")
	errMissingAccount      = errors.New("response is missing the account number")
	errMissingTransaction  = errors.New("response is missing the transaction id")
)

// envelope is the {"data": ...} wrapper of every success body.
type envelope[T any] struct {
	Data *T `json:"data"`
}

func decodeData[T any](body []byte) (T, error) {
	var zero T
	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, fmt.Errorf("decode response: %w", err)
	}
	if env.Data == nil {
		return zero, errMissingData
	}
	return *env.Data, nil
}

// errorMessage extracts {"message": ...} from an error body, if any.
func errorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Message
}

type tokenWire struct {
	Token string `json:"token"`
}

type tokensWire struct {
	Access  tokenWire `json:"access"`
	Refresh tokenWire `json:"refresh"`
}

func (t tokensWire) tokens() (domain.Tokens, error) {
	if t.Access.Token == "" {
		return domain.Tokens{}, errMissingAccessToken
	}
	if t.Refresh.Token == "" {
		return domain.Tokens{}, errMissingRefreshToken
	}
	return domain.Tokens{AccessToken: t.Access.Token, RefreshToken: t.Refresh.Token}, nil
}

type loginWire struct {
	Tokens *tokensWire `json:"tokens"`
	User   domain.User `json:"user"`
}

func decodeLogin(body []byte) (domain.LoginResult, error) {
	data, err := decodeData[loginWire](body)
	if err != nil {
		return domain.LoginResult{}, err
	}
	if data.Tokens == nil {
		return domain.LoginResult{}, errMissingAccessToken
	}
	tokens, err := data.Tokens.tokens()
	if err != nil {
		return domain.LoginResult{}, err
	}
	return domain.LoginResult{Tokens: tokens, User: data.User}, nil
}

type refreshWire struct {
	Tokens *tokensWire `json:"tokens"`
}

func decodeRefresh(body []byte) (domain.Tokens, error) {
	data, err := decodeData[refreshWire](body)
	if err != nil {
		return domain.Tokens{}, err
	}
	if data.Tokens == nil {
		return domain.Tokens{}, errMissingAccessToken
	}
	return data.Tokens.tokens()
}

type phoneWire struct {
	Name string `json:"name"`
}

// decodePhoneStatus accepts an empty body; any 2xx means the number exists.
func decodePhoneStatus(phone domain.PhoneNumber) func([]byte) (domain.PhoneNumberStatus, error) {
	return func(body []byte) (domain.PhoneNumberStatus, error) {
		st := domain.PhoneNumberStatus{PhoneNumber: phone, Registered: true}
		if len(bytes.TrimSpace(body)) == 0 {
			return st, nil
		}
		var env envelope[phoneWire]
		if err := json.Unmarshal(body, &env); err != nil {
			return domain.PhoneNumberStatus{}, fmt.Errorf("decode response: %w", err)
		}
		if env.Data != nil {
			st.Name = env.Data.Name
		}
		return st, nil
	}
}

func decodeAccount(body []byte) (domain.Account, error) {
	acc, err := decodeData[domain.Account](body)
	if err != nil {
		return domain.Account{}, err
	}
	if acc.AccountNumber == "" {
		return domain.Account{}, errMissingAccount
	}
	return acc, nil
}

func decodeTransactions(body []byte) ([]domain.Transaction, error) {
	return decodeData[[]domain.Transaction](body)
}

func decodeTransaction(body []byte) (domain.Transaction, error) {
	trx, err := decodeData[domain.Transaction](body)
	if err != nil {
		return domain.Transaction{}, err
	}
	if trx.TransactionID == "" {
		return domain.Transaction{}, errMissingTransaction
	}
	return trx, nil
}
