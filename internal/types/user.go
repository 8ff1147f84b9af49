package types

import "time"

// User is the full persisted record, including the bcrypt hash. The hash is
// never serialized; handlers return the struct as-is.
type User struct {
	ID        int        `json:"id"`
	Email     string     `json:"email"`
	Password  string     `json:"-"`
	Pseudo    string     `json:"pseudo"`
	Birthdate time.Time  `json:"birthdate"`
	Avatar    *string    `json:"avatar"`
	RoleID    int        `json:"role_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Role permission tiers, mirroring the seeded role table.
const (
	RoleAdmin  = 1
	RoleMember = 2
)

// UpdateUserParams carries the self-edit field set. Nil means "leave as is".
type UpdateUserParams struct {
	Pseudo    *string `json:"pseudo,omitempty"`
	Birthdate *string `json:"birthdate,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
}
