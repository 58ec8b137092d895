package types

import "unicode"

const (
	minPhoneNumberLength = 6
	maxPhoneNumberLength = 12
	minPasswordLength    = 8
)

// Session is the in-memory record of the current authenticated identity.
// IsAuthenticated is derived from AuthToken and never stored.
type Session struct {
	AuthToken            string        `json:"-"`
	RefreshToken         string        `json:"-"`
	PhoneNumber          PhoneNumber   `json:"phoneNumber"`
	AccountNumber        AccountNumber `json:"accountNumber"`
	TokenID              string        `json:"tokenId"`
	FullName             string        `json:"fullName"`
	LocallyAuthenticated bool          `json:"locallyAuthenticated"`
}

// IsAuthenticated reports whether the session holds an auth token.
func (s Session) IsAuthenticated() bool { return s.AuthToken != "" }

// Tokens is the bearer/refresh pair issued by the backend.
type Tokens struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
}

// User is the profile returned alongside a successful login.
type User struct {
	Name        string      `json:"name"`
	PhoneNumber PhoneNumber `json:"phoneNumber,omitempty"`
}

// LoginResult is the decoded success body of a login call.
type LoginResult struct {
	Tokens Tokens `json:"-"`
	User   User   `json:"user"`
}

// PhoneNumberStatus is the result of the pre-login existence check.
type PhoneNumberStatus struct {
	PhoneNumber PhoneNumber `json:"phoneNumber"`
	Registered  bool        `json:"registered"`
	Name        string      `json:"name,omitempty"`
}

// Credentials are what the customer types on the two login steps.
type Credentials struct {
	PhoneNumber PhoneNumber
	Password    string
}

// ValidatePhoneNumber checks the shape accepted by the backend: 6 to 12 digits.
func ValidatePhoneNumber(p PhoneNumber) error {
	if len(p) < minPhoneNumberLength || len(p) > maxPhoneNumberLength {
		return ErrInvalidPhoneNumber
	}
	for _, r := range p {
		if !unicode.IsDigit(r) {
			return ErrInvalidPhoneNumber
		}
	}
	return nil
}

// ValidatePassword requires at least 8 characters with one letter and one digit.
func ValidatePassword(password string) error {
	var hasLetter, hasDigit bool
	if len([]rune(password)) < minPasswordLength {
		return ErrInvalidPassword
	}
	for _, r := range password {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrInvalidPassword
	}
	return nil
}

// Validate checks both login fields.
func (c Credentials) Validate() error {
	if err := ValidatePhoneNumber(c.PhoneNumber); err != nil {
		return err
	}
	return ValidatePassword(c.Password)
}
