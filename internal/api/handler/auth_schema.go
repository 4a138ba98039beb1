package handler

// --- Request types ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email     string `json:"email"     validate:"required,email,max=255"`
	Password  string `json:"password"  validate:"required,min=8,bcrypt_len"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName"  validate:"required,max=100"`
	Phone     string `json:"phone"     validate:"required,phone_fr"`
	Role      string `json:"role"      validate:"omitempty,oneof=CLIENT PROFESSIONAL"` // accepted, always stored as CLIENT
}

// proUserRequest is the account part of a professional registration. The
// role is implied by the endpoint.
type proUserRequest struct {
	Email     string `json:"email"     validate:"required,email,max=255"`
	Password  string `json:"password"  validate:"required,min=8,bcrypt_len"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName"  validate:"required,max=100"`
	Phone     string `json:"phone"     validate:"required,phone_fr"`
}

type registerProRequest struct {
	User         proUserRequest `json:"user"`
	BusinessName string         `json:"businessName" validate:"required,max=150"`
	Description  string         `json:"description"  validate:"max=2000"`
	Phone        string         `json:"phone"        validate:"required,phone_fr"`
	City         string         `json:"city"         validate:"required,max=100"`
}

// --- Response types ---

type loginResponse struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Token  string `json:"token"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

type professionalResponse struct {
	ID           int64        `json:"id"`
	User         userResponse `json:"user"`
	BusinessName string       `json:"businessName"`
	Description  string       `json:"description,omitempty"`
	Phone        string       `json:"phone"`
	City         string       `json:"city"`
}

type meResponse struct {
	userResponse
	Authority string `json:"authority"`
}
