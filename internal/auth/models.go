package auth

import (
	"fmt"
	"strings"
)

// RoleName is a closed set of authorities a principal can hold.
type RoleName string

const (
	RoleAdmin RoleName = "ADMIN"
	RoleUser  RoleName = "USER"
)

// DefaultRole is assigned to every self-registered client.
const DefaultRole = RoleUser

func (r RoleName) String() string { return string(r) }

// IsValid reports whether r is one of the known roles.
func (r RoleName) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// ParseRoleName accepts role names case-insensitively.
func ParseRoleName(s string) (RoleName, error) {
	role := RoleName(strings.ToUpper(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// Principal is the credential record the authentication flow works with.
type Principal struct {
	ID           string
	Email        string
	PasswordHash string
	Roles        []RoleName
}

// JoinScope renders roles in assignment order, space separated, skipping duplicates.
func JoinScope(roles []RoleName) string {
	seen := make(map[RoleName]struct{}, len(roles))
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		parts = append(parts, string(r))
	}
	return strings.Join(parts, " ")
}
