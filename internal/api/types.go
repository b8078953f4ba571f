package api

import (
	"time"

	"github.com/cheekoai/cheeko-server/domain/entities"
)

// RegisterRequest represents the request payload for user registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents the response payload for register/login
type AuthResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *entities.User `json:"user"`
}

// DeviceAuthRequest represents the request payload for device authentication
type DeviceAuthRequest struct {
	MacID          string `json:"mac_id" validate:"required"`
	ActivationCode string `json:"activation_code" validate:"required"`
}

// DeviceAuthResponse represents the response payload for device authentication
type DeviceAuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	MacID     string    `json:"mac_id"`
}

// ReleaseRequest represents the request payload for retrying a device
// release after a partial unbind
type ReleaseRequest struct {
	MacID string `json:"mac_id" validate:"required"`
}

// ActivateRequest represents the request payload for toy activation
type ActivateRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

// ProfileRequest represents the request payload for saving a parent profile
type ProfileRequest struct {
	ParentName        string `json:"parent_name" validate:"required"`
	ParentEmail       string `json:"parent_email" validate:"required,email"`
	ParentPhoneNumber string `json:"parent_phone_number,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	// MacID and ToyID are set for partial-failure errors that need a
	// follow-up (finalize or release retry).
	MacID string `json:"mac_id,omitempty"`
	ToyID string `json:"toy_id,omitempty"`
}
