package ad

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/transmission-savoirs/api/internal/types"
)

var validate = validator.New()

// French postal codes: five digits, no separator.
var postalCodePattern = regexp.MustCompile(`^\d{5}$`)

// ErrInvalidPostalCode is surfaced verbatim to the client.
var ErrInvalidPostalCode = errors.New("Code postal invalide")

// CreateAdParams is the body of POST /api/users/create-annonces. The owner is
// taken from the bearer token, never from the body.
type CreateAdParams struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	PostalCode  *string `json:"postal_code"`
	Image       *string `json:"image"`
	CategoryID  int     `json:"category_id" validate:"required"`
	ConditionID int     `json:"condition_id" validate:"required"`
	TypeID      int     `json:"type_id" validate:"required"`
}

// Validate enforces the required fields plus the postal-code rule: an
// in-person ad must carry a well-formed postal code.
func (p CreateAdParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	if p.ConditionID == types.ConditionPresentiel {
		if p.PostalCode == nil || !postalCodePattern.MatchString(*p.PostalCode) {
			return ErrInvalidPostalCode
		}
	}
	return nil
}

// EditAdParams is the body of PATCH /api/annonces/{id}. Nil fields keep their
// stored value.
type EditAdParams struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PostalCode  *string `json:"postal_code"`
	Image       *string `json:"image"`
	CategoryID  *int    `json:"category_id"`
	ConditionID *int    `json:"condition_id"`
	TypeID      *int    `json:"type_id"`
}

// Validate only checks what the patch touches.
func (p EditAdParams) Validate() error {
	if p.ConditionID != nil && *p.ConditionID == types.ConditionPresentiel {
		if p.PostalCode == nil || !postalCodePattern.MatchString(*p.PostalCode) {
			return ErrInvalidPostalCode
		}
	}
	if p.PostalCode != nil && !postalCodePattern.MatchString(*p.PostalCode) {
		return ErrInvalidPostalCode
	}
	return nil
}
