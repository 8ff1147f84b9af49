package types

import "time"

// Ad is a classified listing (annonce) owned by a user.
type Ad struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PostalCode  *string    `json:"postal_code"`
	Image       *string    `json:"image"`
	UserID      int        `json:"user_id"`
	CategoryID  int        `json:"category_id"`
	ConditionID int        `json:"condition_id"`
	TypeID      int        `json:"type_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// AdWithSimilar is the detail view: the ad plus up to three other ads from
// the same category.
type AdWithSimilar struct {
	Ad
	Similar []Ad `json:"similar"`
}

// Condition ids from the seeded condition table. Présentiel listings carry a
// postal code; Distanciel ones do not.
const (
	ConditionPresentiel = 1
	ConditionDistanciel = 2
)
