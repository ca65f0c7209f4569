package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"clientregistry/internal/audit"
	"clientregistry/pkg/logger"
)

// State is a step of a single login attempt.
type State int

const (
	StateUnauthenticated State = iota
	StateValidating
	StateAuthenticated
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateValidating:
		return "validating"
	case StateAuthenticated:
		return "authenticated"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// internal rejection reasons, logged and audited only
const (
	reasonUnknownEmail     = "unknown_email"
	reasonPasswordMismatch = "password_mismatch"
	reasonNoRoles          = "no_roles"
)

type Service interface {
	Authenticate(ctx context.Context, email, password string) (*IssuedToken, error)
}

type service struct {
	store     CredentialStore
	hasher    PasswordHasher
	issuer    TokenIssuer
	audit     audit.Publisher
	log       *logger.Logger
	dummyHash string
}

func NewService(store CredentialStore, hasher PasswordHasher, issuer TokenIssuer, pub audit.Publisher, log *logger.Logger) (Service, error) {
	if pub == nil {
		pub = audit.Nop{}
	}
	// Unknown emails are checked against this hash so both rejection paths
	// do the same amount of work.
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("seed dummy hash: %w", err)
	}
	dummy, err := hasher.Hash(hex.EncodeToString(seed))
	if err != nil {
		return nil, fmt.Errorf("compute dummy hash: %w", err)
	}
	return &service{
		store:     store,
		hasher:    hasher,
		issuer:    issuer,
		audit:     pub,
		log:       log,
		dummyHash: dummy,
	}, nil
}

// attempt tracks one pass through the login state machine.
type attempt struct {
	state     State
	email     string
	ip        string
	principal *Principal
	reason    string
}

func (a *attempt) validate(p *Principal) {
	a.state = StateValidating
	a.principal = p
}

func (a *attempt) reject(reason string) error {
	a.state = StateRejected
	a.reason = reason
	return ErrInvalidCredentials
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*IssuedToken, error) {
	a := &attempt{
		state: StateUnauthenticated,
		email: NormalizeEmail(email),
		ip:    ClientIPFromContext(ctx),
	}

	p, err := s.store.FindByEmail(ctx, a.email)
	switch {
	case errors.Is(err, ErrPrincipalNotFound):
		s.hasher.Verify(password, s.dummyHash)
		return nil, s.rejected(ctx, a, reasonUnknownEmail)
	case err != nil:
		s.log.WithError(err).ErrorContext(ctx, "credential lookup failed", "state", a.state.String())
		if errors.Is(err, ErrServiceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	a.validate(p)
	if !s.hasher.Verify(password, p.PasswordHash) {
		return nil, s.rejected(ctx, a, reasonPasswordMismatch)
	}
	if len(p.Roles) == 0 {
		return nil, s.rejected(ctx, a, reasonNoRoles)
	}

	token, err := s.issuer.Issue(*p)
	if err != nil {
		s.log.WithError(err).ErrorContext(ctx, "token issuance failed", "user_id", p.ID)
		return nil, ErrTokenIssuance
	}

	a.state = StateAuthenticated
	s.log.LogAuthSuccess(ctx, p.ID, "password")
	s.audit.Publish(audit.NewEvent(audit.EventLoginSucceeded).
		WithSubject(p.ID).
		WithEmail(a.email).
		WithIP(a.ip))

	return token, nil
}

func (s *service) rejected(ctx context.Context, a *attempt, reason string) error {
	err := a.reject(reason)
	s.log.LogAuthFailure(ctx, reason, a.ip)

	ev := audit.NewEvent(audit.EventLoginFailed).
		WithEmail(a.email).
		WithReason(reason).
		WithIP(a.ip)
	if a.principal != nil {
		ev = ev.WithSubject(a.principal.ID)
	}
	s.audit.Publish(ev)
	return err
}

// NormalizeEmail is applied on every lookup and on storage so that lookups
// are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type clientIPKey struct{}

// WithClientIP records the caller's address for logging and auditing.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
