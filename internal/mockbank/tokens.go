package mockbank

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

var errTokenType = errors.New("wrong token type")

// tokenClaims identify the customer by phone number in the subject.
type tokenClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// tokenIssuer signs and checks HS256 tokens.
type tokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func (ti *tokenIssuer) issuePair(phone string) (access, refresh string, err error) {
	if access, err = ti.issue(phone, tokenAccess, ti.accessTTL); err != nil {
		return "", "", err
	}
	if refresh, err = ti.issue(phone, tokenRefresh, ti.refreshTTL); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (ti *tokenIssuer) issue(phone, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "mockbank",
			Subject:   phone,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
}

// parse returns the phone number a valid token of the given type was issued to.
func (ti *tokenIssuer) parse(raw, typ string) (string, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil {
		return "", err
	}
	if claims.Type != typ {
		return "", errTokenType
	}
	return claims.Subject, nil
}
