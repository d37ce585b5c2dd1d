package identity

import (
	"errors"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// RegistrationSeed carries the fields collected by the registration form.
type RegistrationSeed struct {
	Name     string
	Email    string
	Password string
	PhotoURL string
}

// Validate checks the non-password registration fields.
func (seed RegistrationSeed) Validate() error {
	return validation.ValidateStruct(&seed,
		validation.Field(&seed.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&seed.Email, validation.Required, is.Email),
		validation.Field(&seed.PhotoURL, is.URL),
	)
}

// ValidatePasswordPolicy enforces the password rules checked before any
// network call is made. Messages are surfaced verbatim to the user.
func ValidatePasswordPolicy(password string) error {
	hasUpper := false
	hasLower := false
	for _, character := range password {
		if unicode.IsUpper(character) {
			hasUpper = true
		}
		if unicode.IsLower(character) {
			hasLower = true
		}
	}
	if !hasUpper {
		return errors.New("Password must contain at least one uppercase letter.")
	}
	if !hasLower {
		return errors.New("Password must contain at least one lowercase letter.")
	}
	if len(password) < 6 {
		return errors.New("Password must be at least 6 characters.")
	}
	return nil
}
