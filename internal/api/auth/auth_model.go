package auth

import "github.com/lribeiro-dev/go-auth-api/internal/api"

// RegisterRequest represents the register request body
type RegisterRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the payload returned by register and login: the user
// projection plus a freshly issued session token.
type AuthResponse struct {
	User  *api.User `json:"user"`
	Token string    `json:"token"`
}

// MeResponse is the payload returned by the profile endpoint.
type MeResponse struct {
	User *api.User `json:"user"`
}
