package auth

import "time"

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// MeResponse echoes the verified claims of the caller's token.
type MeResponse struct {
	ID        string    `json:"id"`
	Roles     []string  `json:"roles"`
	Issuer    string    `json:"issuer"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newMeResponse(c *ClaimSet) MeResponse {
	roles := c.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	resp := MeResponse{ID: c.PrincipalID(), Roles: names, Issuer: c.Issuer}
	if c.IssuedAt != nil {
		resp.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		resp.ExpiresAt = c.ExpiresAt.Time
	}
	return resp
}
