package validator

import (
	"math"
	"net/mail"
	"regexp"
	"strings"

	apperrors "github.com/askwhyharsh/proxipal/pkg/errors"
)

const minPasswordLength = 8

type Validator interface {
	ValidateUsername(username string) error
	ValidateEmail(email string) error
	ValidatePassword(password string) error
	ValidateCoordinates(lat, lon float64) error
}

type validator struct {
	usernameRegex *regexp.Regexp
}

func NewValidator() Validator {
	return &validator{
		usernameRegex: regexp.MustCompile(`^[\w.@+-]+$`),
	}
}

func (v *validator) ValidateUsername(username string) error {
	if len(username) < 1 || len(username) > 150 {
		return apperrors.ErrInvalidUsernameLength
	}

	if !v.usernameRegex.MatchString(username) {
		return apperrors.ErrInvalidUsernameChars
	}

	return nil
}

func (v *validator) ValidateEmail(email string) error {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return apperrors.ErrInvalidEmail
	}

	// mail.ParseAddress accepts "Name <addr>", which is not an email field value.
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return apperrors.ErrInvalidEmail
	}

	return nil
}

func (v *validator) ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.ErrPasswordTooShort
	}

	return nil
}

func (v *validator) ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return apperrors.ErrInvalidCoordinates
	}

	if lat < -90 || lat > 90 {
		return apperrors.ErrInvalidLatitude
	}

	if lon < -180 || lon > 180 {
		return apperrors.ErrInvalidLongitude
	}

	return nil
}
