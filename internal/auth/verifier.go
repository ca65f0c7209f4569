package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const MaxClockSkew = 60 * time.Second

// TokenVerifier checks a presented token and returns its claims only when the
// signature, issuer and lifetime all hold.
type TokenVerifier interface {
	Verify(token string) (*ClaimSet, error)
}

type VerifierOption func(*tokenVerifier)

// WithVerifierClock overrides the time source expiry is checked against.
func WithVerifierClock(now func() time.Time) VerifierOption {
	return func(v *tokenVerifier) { v.now = now }
}

// WithClockSkew tolerates clocks that drift by up to skew, capped at MaxClockSkew.
func WithClockSkew(skew time.Duration) VerifierOption {
	return func(v *tokenVerifier) { v.skew = ClampSkew(skew) }
}

type tokenVerifier struct {
	keys   *KeySet
	issuer string
	skew   time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenVerifier(keys *KeySet, issuer string, opts ...VerifierOption) TokenVerifier {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	v := &tokenVerifier{keys: keys, issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	v.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithLeeway(v.skew),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
	)
	return v
}

// ClampSkew bounds a configured skew to [0, MaxClockSkew].
func ClampSkew(skew time.Duration) time.Duration {
	switch {
	case skew < 0:
		return 0
	case skew > MaxClockSkew:
		return MaxClockSkew
	default:
		return skew
	}
}

func (v *tokenVerifier) Verify(raw string) (*ClaimSet, error) {
	if raw == "" {
		return nil, ErrTokenMalformed
	}
	if v.keys == nil {
		return nil, fmt.Errorf("%w: no key material", ErrTokenSignature)
	}

	claims := &ClaimSet{}
	token, err := v.parser.ParseWithClaims(raw, claims, v.keyFor)
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrTokenSignature
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenClaims)
	}
	return claims, nil
}

func (v *tokenVerifier) keyFor(token *jwt.Token) (interface{}, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("missing kid header")
	}
	pub, ok := v.keys.PublicKey(kid)
	if !ok {
		return nil, fmt.Errorf("unknown kid %q", kid)
	}
	return pub, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrTokenSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenClaims, err)
	}
}
