package dto

import (
	"time"

	"github.com/praxisgrc/praxis/internal/domain/models"
)

// CreateUserRequest registers a new user. Users always start pending; the
// initial role must be one of the tenant-local roles.
type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	DisplayName string `json:"display_name" validate:"omitempty,max=255"`
	Role        string `json:"role" validate:"required,oneof=viewer contributor manager admin"`
}

// UpdateUserRequest rewrites the unprotected fields of a user.
type UpdateUserRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	DisplayName string `json:"display_name" validate:"omitempty,max=255"`
}

// UserResponse is the read shape of a user.
type UserResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name,omitempty"`
	Status        string    `json:"status"`
	Role          string    `json:"role"`
	PlatformLevel bool      `json:"platform_level,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UserFromModel converts a domain user into its response shape.
func UserFromModel(u *models.User) *UserResponse {
	return &UserResponse{
		ID:            u.ID.String(),
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		Status:        string(u.Status),
		Role:          string(u.Role),
		PlatformLevel: u.PlatformLevel,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
