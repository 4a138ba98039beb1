package handler

import (
	"github.com/lesbonsservices/booking-api/internal/core/domain"
	"github.com/lesbonsservices/booking-api/internal/core/ports"
)

// --- Request → Service input ---

func toRegisterInput(req registerRequest) ports.RegisterInput {
	return ports.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      domain.Role(req.Role),
	}
}

func toRegisterProInput(req registerProRequest) ports.RegisterProfessionalInput {
	return ports.RegisterProfessionalInput{
		User: ports.RegisterInput{
			Email:     req.User.Email,
			Password:  req.User.Password,
			FirstName: req.User.FirstName,
			LastName:  req.User.LastName,
			Phone:     req.User.Phone,
		},
		BusinessName: req.BusinessName,
		Description:  req.Description,
		Phone:        req.Phone,
		City:         req.City,
	}
}

// --- Domain → Response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Role:      string(u.Role),
	}
}

func toProfessionalResponse(u *domain.User) professionalResponse {
	resp := professionalResponse{User: toUserResponse(u)}
	if p := u.Professional; p != nil {
		resp.ID = p.ID
		resp.BusinessName = p.BusinessName
		resp.Description = p.Description
		resp.Phone = p.Phone
		resp.City = p.City
	}
	return resp
}

func toLoginResponse(r *ports.LoginResult) loginResponse {
	return loginResponse{
		UserID: r.UserID,
		Email:  r.Email,
		Role:   string(r.Role),
		Token:  r.Token,
	}
}
