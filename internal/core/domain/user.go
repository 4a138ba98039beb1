package domain

import (
	"strings"
	"time"
)

// Role is the flat role string carried by every account.
type Role string

const (
	RoleClient       Role = "CLIENT"
	RoleProfessional Role = "PROFESSIONAL"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleProfessional
}

// Authority returns the single permission tag derived from the role.
func (r Role) Authority() string {
	return "ROLE_" + string(r)
}

// User is the account record resolved as the request principal.
// ID is assigned by the store on first save and never changes afterwards.
type User struct {
	ID           int64         `json:"id"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	Phone        string        `json:"phone"`
	Role         Role          `json:"role"`
	IsActive     bool          `json:"isActive"`
	Professional *Professional `json:"professional,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Professional is the business profile attached to a PROFESSIONAL account.
type Professional struct {
	ID           int64     `json:"id"`
	BusinessName string    `json:"businessName"`
	Description  string    `json:"description,omitempty"`
	Phone        string    `json:"phone"`
	City         string    `json:"city"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NormalizeEmail is applied to every email before it reaches the store, so
// lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
