package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimSet is the signed payload of an access token. The principal id is
// always read from the registered "sub" claim.
type ClaimSet struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Roles parses the scope claim. Unknown role names are dropped.
func (c *ClaimSet) Roles() []RoleName {
	if c == nil {
		return nil
	}
	fields := strings.Fields(c.Scope)
	roles := make([]RoleName, 0, len(fields))
	for _, f := range fields {
		if r := RoleName(f); r.IsValid() {
			roles = append(roles, r)
		}
	}
	return roles
}

// HasScope reports whether role appears in the scope claim.
func (c *ClaimSet) HasScope(role RoleName) bool {
	if c == nil {
		return false
	}
	for _, f := range strings.Fields(c.Scope) {
		if f == string(role) {
			return true
		}
	}
	return false
}

// PrincipalID is the canonical accessor for the token's principal.
func (c *ClaimSet) PrincipalID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
