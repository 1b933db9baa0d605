package dto

import (
	"time"

	"github.com/cqms-io/support-center/internal/domain"
)

// RegisterRequest payload for customer registration.
type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
}

// LoginRequest payload. Role is the claimed role; login fails unless the
// stored role matches.
type LoginRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse carries issued token metadata.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountResponse is the public account view.
type AccountResponse struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// ProfileResponse is the customer profile view.
type ProfileResponse struct {
	CustomerID  int64  `json:"customer_id"`
	CompanyName string `json:"company_name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

// UpdateProfileRequest payload for contact updates.
type UpdateProfileRequest struct {
	Phone   string `json:"phone"`
	Address string `json:"address"`
}
