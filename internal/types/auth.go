package types

import "github.com/golang-jwt/jwt/v5"

// Claims is the payload of an issued access token. Tokens are stateless:
// nothing is persisted server-side, ownership is re-checked against the
// database on every mutation.
type Claims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Pseudo string `json:"pseudo"`
	RoleID int    `json:"role_id"`
	jwt.RegisteredClaims
}

// Tokens is the token envelope returned by login and register.
type Tokens struct {
	AccessToken string `json:"accessToken"`
}
