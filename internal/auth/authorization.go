package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"clientregistry/internal/audit"
	"clientregistry/pkg/logger"
)

// Policy selects which predicates guard an operation.
type Policy int

const (
	// PolicyRoleOnly is for listing and bulk operations.
	PolicyRoleOnly Policy = iota
	// PolicyRoleOrOwner is for single-resource operations: the required role,
	// or the token's own resource.
	PolicyRoleOrOwner
)

func (p Policy) String() string {
	switch p {
	case PolicyRoleOnly:
		return "role_only"
	case PolicyRoleOrOwner:
		return "role_or_owner"
	default:
		return "unknown"
	}
}

type Request struct {
	Claims       *ClaimSet
	ResourceID   string
	RequiredRole RoleName
	Policy       Policy
}

// Authorizer returns nil to allow. Denials are ErrForbidden, ErrResourceNotFound,
// ErrUnauthenticated or ErrServiceUnavailable; there is no default-allow path.
type Authorizer interface {
	Authorize(ctx context.Context, req Request) error
}

type authorizer struct {
	store CredentialStore
	audit audit.Publisher
	log   *logger.Logger
}

func NewAuthorizer(store CredentialStore, pub audit.Publisher, log *logger.Logger) Authorizer {
	if pub == nil {
		pub = audit.Nop{}
	}
	return &authorizer{store: store, audit: pub, log: log}
}

// HasRole is the role predicate.
func HasRole(claims *ClaimSet, role RoleName) bool {
	return role.IsValid() && claims.HasScope(role)
}

// IsOwner is the identity half of the ownership predicate. It does not check
// that the resource still exists.
func IsOwner(resourceID string, claims *ClaimSet) bool {
	sub := claims.PrincipalID()
	if sub == "" || resourceID == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sub), []byte(resourceID)) == 1
}

func (a *authorizer) Authorize(ctx context.Context, req Request) error {
	err := a.decide(ctx, req)
	if err != nil {
		a.denied(ctx, req, err)
	}
	return err
}

func (a *authorizer) decide(ctx context.Context, req Request) error {
	if req.Claims == nil {
		return ErrUnauthenticated
	}
	if req.Claims.PrincipalID() == "" {
		return fmt.Errorf("%w: claim set has no subject", ErrForbidden)
	}
	if !req.RequiredRole.IsValid() {
		return fmt.Errorf("%w: unknown required role %q", ErrForbidden, req.RequiredRole)
	}

	// role first: no store round trip
	if HasRole(req.Claims, req.RequiredRole) {
		return nil
	}

	switch req.Policy {
	case PolicyRoleOnly:
		return ErrForbidden
	case PolicyRoleOrOwner:
		return a.checkOwnership(ctx, req)
	default:
		return fmt.Errorf("%w: unknown policy %d", ErrForbidden, req.Policy)
	}
}

func (a *authorizer) checkOwnership(ctx context.Context, req Request) error {
	if req.ResourceID == "" {
		return ErrForbidden
	}

	p, err := a.store.FindByID(ctx, req.ResourceID)
	switch {
	case errors.Is(err, ErrPrincipalNotFound):
		return ErrResourceNotFound
	case err != nil:
		if errors.Is(err, ErrServiceUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	case p == nil:
		return ErrResourceNotFound
	}

	if !IsOwner(p.ID, req.Claims) {
		return ErrForbidden
	}
	return nil
}

func (a *authorizer) denied(ctx context.Context, req Request, err error) {
	subject := req.Claims.PrincipalID()
	a.log.LogAccessDenied(ctx, subject, req.ResourceID, req.Policy.String()+": "+err.Error())
	a.audit.Publish(audit.NewEvent(audit.EventAccessDenied).
		WithSubject(subject).
		WithResource(req.ResourceID).
		WithReason(err.Error()).
		WithIP(ClientIPFromContext(ctx)))
}
