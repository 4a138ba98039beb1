package ports

import (
	"context"

	"github.com/lesbonsservices/booking-api/internal/core/domain"
)

// RegisterInput carries the account fields of a registration. Field format
// validation happens before the service is called.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      domain.Role // must be empty or a known role; Register always stores CLIENT
}

// RegisterProfessionalInput is a user registration plus the business profile.
type RegisterProfessionalInput struct {
	User         RegisterInput
	BusinessName string
	Description  string
	Phone        string
	City         string
}

// LoginResult is returned on successful authentication. It never carries
// the password hash.
type LoginResult struct {
	UserID int64
	Email  string
	Role   domain.Role
	Token  string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	RegisterProfessional(ctx context.Context, in RegisterProfessionalInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}
