package auth

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPrincipalNotFound  = errors.New("principal not found")
	ErrServiceUnavailable = errors.New("credential store unavailable")

	ErrTokenIssuance  = errors.New("token issuance failed")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenClaims    = errors.New("token claims invalid")

	ErrForbidden        = errors.New("forbidden")
	ErrResourceNotFound = errors.New("resource not found")
	ErrUnauthenticated  = errors.New("unauthenticated")

	ErrInvalidKeyMaterial = errors.New("invalid key material")
)

// IsTokenRejection reports whether err is one of the verifier's rejection reasons.
func IsTokenRejection(err error) bool {
	return errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenSignature) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenClaims)
}

// RejectionReason returns a short label for logging a token rejection.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, ErrTokenSignature):
		return "bad_signature"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenClaims):
		return "invalid_claims"
	default:
		return "unknown"
	}
}
