package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultIssuer = "Api"
	// TokenTTL is the lifetime of every access token.
	TokenTTL      = 300 * time.Second
)

// IssuedToken is what a successful login hands back to the caller.
type IssuedToken struct {
	AccessToken string
	ExpiresIn   int64 // seconds
	ExpiresAt   time.Time
}

// TokenIssuer signs claim sets for authenticated principals.
type TokenIssuer interface {
	Issue(p Principal) (*IssuedToken, error)
}

type IssuerOption func(*tokenIssuer)

// WithIssuerClock overrides the time source used for iat/exp.
func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(t *tokenIssuer) { t.now = now }
}

type tokenIssuer struct {
	keys   *KeySet
	issuer string
	now    func() time.Time
}

func NewTokenIssuer(keys *KeySet, issuer string, opts ...IssuerOption) TokenIssuer {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	t := &tokenIssuer{keys: keys, issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *tokenIssuer) Issue(p Principal) (*IssuedToken, error) {
	if t.keys == nil {
		return nil, fmt.Errorf("%w: no key material", ErrTokenIssuance)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: principal has no id", ErrTokenIssuance)
	}

	// jwt NumericDate is second precision; truncate so exp - iat is exactly ttl.
	issuedAt := t.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(TokenTTL)

	claims := ClaimSet{
		Scope: JoinScope(p.Roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	key, kid := t.keys.signingKey()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid

	signed, err := token.SignedString(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenIssuance, err)
	}

	return &IssuedToken{
		AccessToken: signed,
		ExpiresIn:   int64(TokenTTL / time.Second),
		ExpiresAt:   expiresAt,
	}, nil
}
