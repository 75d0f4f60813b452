// Package requests holds the validated input shapes of the API. Each struct
// is bound with ctx.BindJSON, which decodes and validates in one step.
package requests

import "github.com/farmchain/farmchain/pkg/auth"

type RegisterRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Email    string  `json:"email"    validate:"required,email,max=255"`
	Name     string  `json:"name"     validate:"required,min=2,max=100"`
	UserType string  `json:"userType" validate:"required,oneof=farmer buyer"`
	Phone    *string `json:"phone"    validate:"omitempty,max=32"`
	Address  *string `json:"address"  validate:"omitempty,max=255"`
	City     *string `json:"city"     validate:"omitempty,max=100"`
	State    *string `json:"state"    validate:"omitempty,max=100"`
	Pincode  *string `json:"pincode"  validate:"omitempty,max=16"`
	About    *string `json:"about"    validate:"omitempty,max=2000"`
}

// Role is only meaningful after validation has passed.
func (r RegisterRequest) Role() auth.Role {
	role, _ := auth.ParseRole(r.UserType)
	return role
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
