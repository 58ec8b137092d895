package types

// PhoneNumber identifies a customer to the bank backend.
type PhoneNumber string

// String returns the string form of the phone number.
func (p PhoneNumber) String() string { return string(p) }

// AccountNumber identifies a bank account.
type AccountNumber string

// String returns the string form of the account number.
func (a AccountNumber) String() string { return string(a) }

// Secure storage keys. The names are shared with the other clients of the
// same backend account, so they must not change.
const (
	KeyAuthToken    = "authToken"
	KeyRefreshToken = "refreshToken"
	KeyBalance      = "balance"
)
