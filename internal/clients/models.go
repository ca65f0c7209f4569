package clients

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"clientregistry/internal/auth"
)

// Unique index names; Postgres reports them as the violated constraint.
const (
	ConstraintEmail = "uq_clients_email"
	ConstraintCPF   = "uq_clients_cpf"
)

type Client struct {
	ID        uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	Name      string     `json:"name" gorm:"size:100;not null"`
	Birthday  *time.Time `json:"birthday" gorm:"type:date"`
	Email     string     `json:"email" gorm:"size:255;not null;uniqueIndex:uq_clients_email"`
	Password  string     `json:"-" gorm:"not null"` // hide in json
	Phone     string     `json:"phone" gorm:"size:20"`
	CPF       string     `json:"cpf" gorm:"column:cpf;size:11;not null;uniqueIndex:uq_clients_cpf"`
	Roles     RoleList   `json:"roles" gorm:"type:varchar(64);not null;default:'USER'"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Client) TableName() string { return "clients" }

func (c *Client) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if len(c.Roles) == 0 {
		c.Roles = RoleList{auth.DefaultRole}
	}
	return nil
}

// Age in whole years at now, or nil when the birthday is unknown.
func (c *Client) Age(now time.Time) *int {
	if c.Birthday == nil || c.Birthday.IsZero() {
		return nil
	}
	b := c.Birthday.UTC()
	now = now.UTC()
	years := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		years--
	}
	if years < 0 {
		years = 0
	}
	return &years
}

// Principal maps the record onto the credential shape the auth core expects.
func (c *Client) Principal() *auth.Principal {
	return &auth.Principal{
		ID:           c.ID.String(),
		Email:        c.Email,
		PasswordHash: c.Password,
		Roles:        append([]auth.RoleName(nil), c.Roles...),
	}
}

func (c *Client) HasRole(role auth.RoleName) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleList is stored as a space separated column, the same rendering the
// token scope claim uses.
type RoleList []auth.RoleName

func (r RoleList) Value() (driver.Value, error) {
	return auth.JoinScope(r), nil
}

func (r *RoleList) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("clients: cannot scan %T into RoleList", src)
	}

	fields := strings.Fields(s)
	roles := make(RoleList, 0, len(fields))
	for _, f := range fields {
		role, err := auth.ParseRoleName(f)
		if err != nil {
			return err
		}
		roles = append(roles, role)
	}
	*r = roles
	return nil
}
