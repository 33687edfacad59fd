package user

import (
	"time"

	"github.com/askwhyharsh/proxipal/internal/location"
)

// User is an account in the directory.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsSuperuser  bool      `json:"is_superuser"`
	DateJoined   time.Time `json:"date_joined"`
	Profile      Profile   `json:"profile"`
}

// Profile carries the optional position of a user. Location is nil until
// the first update.
type Profile struct {
	Location *location.Coordinates `json:"location,omitempty"`
	Address  *string               `json:"address,omitempty"`
}

// Registration is the submitted sign-up form.
type Registration struct {
	Username  string
	Email     string
	Password1 string
	Password2 string
}

// Credentials is the submitted login form.
type Credentials struct {
	Username string
	Password string
}
