package auth

import (
	"regexp"

	"github.com/transmission-savoirs/api/internal/types"
)

// emailPattern mirrors the front end's validateEmail selector so both sides
// reject the same addresses.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse pairs the sanitized user record with its token envelope.
type LoginResponse struct {
	User   *types.User  `json:"user"`
	Tokens types.Tokens `json:"tokens"`
}

// RegisterRequest represents the registration request body. Birthdate is a
// plain YYYY-MM-DD date.
type RegisterRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Pseudo    string  `json:"pseudo"`
	Birthdate string  `json:"birthdate"`
	Avatar    *string `json:"avatar,omitempty"`
}

// RegisterResponse keeps the historical field names (newUser / newTokens)
// consumed by the front end.
type RegisterResponse struct {
	NewUser   *types.User  `json:"newUser"`
	NewTokens types.Tokens `json:"newTokens"`
}

// ResetPasswordRequest carries the account email for the reset-link phase.
type ResetPasswordRequest struct {
	Email string `json:"email"`
}

// NewPasswordRequest carries the replacement password; the account is
// identified by the email inside the already-verified bearer token.
type NewPasswordRequest struct {
	Password string `json:"password"`
}
