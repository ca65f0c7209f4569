package clients

import (
	"time"

	"clientregistry/internal/auth"
	"clientregistry/internal/shared/validation"
)

type ClientResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Age       *int            `json:"age"`
	Birthday  string          `json:"birthday,omitempty"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	CPF       string          `json:"cpf"`
	Roles     []auth.RoleName `json:"roles"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ToResponse never carries the password hash.
func (c *Client) ToResponse(now time.Time) ClientResponse {
	resp := ClientResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Age:       c.Age(now),
		Email:     c.Email,
		Phone:     c.Phone,
		CPF:       c.CPF,
		Roles:     append([]auth.RoleName{}, c.Roles...),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Birthday != nil {
		resp.Birthday = c.Birthday.Format(validation.DateLayout)
	}
	return resp
}

type PaginatedClients struct {
	Content       []ClientResponse `json:"content"`
	Page          int              `json:"page"`
	Size          int              `json:"size"`
	TotalElements int64            `json:"total_elements"`
	TotalPages    int              `json:"total_pages"`
}
