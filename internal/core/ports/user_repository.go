package ports

import (
	"context"

	"github.com/lesbonsservices/booking-api/internal/core/domain"
)

// UserRepository is the credential store. Emails are passed already
// normalized; lookups that find nothing return domain.ErrPrincipalNotFound.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Save inserts the user when ID is zero (assigning a new ID) and
	// replaces the stored record otherwise.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
}

// RegistrationLock serialises registrations for the same email across
// instances. acquired is false when another registration holds the lock.
type RegistrationLock interface {
	Acquire(ctx context.Context, email string) (release func(), acquired bool, err error)
}
