package domain

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid is returned for malformed, tampered or expired tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrPrincipalNotFound means a token (or lookup) referenced an account
	// that does not exist or can no longer authenticate.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrEmailAlreadyUsed is matched by every *EmailAlreadyUsedError.
	ErrEmailAlreadyUsed = errors.New("email already used")
	// ErrRegistrationInProgress means another request is registering the
	// same email right now. The email may still turn out to be free.
	ErrRegistrationInProgress = errors.New("registration already in progress for this email")

	ErrInvalidRole        = errors.New("invalid role")
	ErrForbidden          = errors.New("access forbidden")
	ErrIdentityAlreadySet = errors.New("identity already set for request")
)

// EmailAlreadyUsedError carries the offending email so the client-facing
// message can name it.
type EmailAlreadyUsedError struct {
	Email string
}

func (e *EmailAlreadyUsedError) Error() string {
	return "email already used: " + e.Email
}

func (e *EmailAlreadyUsedError) Is(target error) bool {
	return target == ErrEmailAlreadyUsed
}
