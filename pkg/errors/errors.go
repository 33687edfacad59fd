package errors

import (
	"errors"
	"net/http"
)

var (
	// User errors
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("a user with that username already exists")
	ErrEmailTaken    = errors.New("this email is already taken")

	// Relationship errors
	ErrRequestNotFound = errors.New("friend request not found")
	ErrSelfRelation    = errors.New("cannot target yourself")
	ErrNotFriends      = errors.New("not friends with this user")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// Validation errors
	ErrInvalidUsernameLength = errors.New("username must be 1-150 characters")
	ErrInvalidUsernameChars  = errors.New("username may contain only letters, numbers, and @/./+/-/_ characters")
	ErrInvalidEmail          = errors.New("enter a valid email address")
	ErrPasswordTooShort      = errors.New("password must contain at least 8 characters")
	ErrInvalidCoordinates    = errors.New("invalid coordinates")
	ErrInvalidLatitude       = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude      = errors.New("longitude must be between -180 and 180")

	// Geocoding errors
	ErrNoGeocodeResult = errors.New("could not reverse geocode")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
	}
}

// StatusCode maps err to the HTTP status it should surface as.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotFriends):
		return http.StatusForbidden
	case errors.Is(err, ErrSelfRelation), errors.Is(err, ErrInvalidCoordinates),
		errors.Is(err, ErrInvalidLatitude), errors.Is(err, ErrInvalidLongitude):
		return http.StatusBadRequest
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
