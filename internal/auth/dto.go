package auth

import (
	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/internal/users"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// OrganizationSummary describes an organization returned after login.
type OrganizationSummary struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Role      enums.UserRole `json:"role"`
	AllAccess bool           `json:"all_access"`
}

// LoginResponse contains the tokens, user, and organization list produced by a successful login.
type LoginResponse struct {
	AccessToken   string                `json:"access_token"`
	RefreshToken  string                `json:"refresh_token"`
	Organizations []OrganizationSummary `json:"organizations"`
	User          *users.UserDTO        `json:"user"`
}

// AdminLoginResponse mirrors LoginResponse while exposing the admin user.
type AdminLoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}
