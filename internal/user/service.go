package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/askwhyharsh/proxipal/pkg/errors"
	"github.com/askwhyharsh/proxipal/pkg/validator"
)

const (
	msgRequired         = "This field is required."
	msgEmailTaken       = "This email is already taken."
	msgUsernameTaken    = "A user with that username already exists."
	msgPasswordMismatch = "Passwords do not match."
	msgUnknownUsername  = "Username does not exist."
	msgWrongPassword    = "Incorrect password."
)

// Store is the user directory backing the service. CreateUser reports
// unique violations as apperrors.ErrUsernameTaken or ErrEmailTaken and
// lookups report apperrors.ErrUserNotFound.
type Store interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	ListUsers(ctx context.Context) ([]User, error)
}

type UserService interface {
	Register(ctx context.Context, form Registration) (*User, error)
	Authenticate(ctx context.Context, creds Credentials) (*User, error)
	Get(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]User, error)
}

type Service struct {
	store     Store
	validator validator.Validator
	hashCost  int
}

// Option tweaks a Service at construction.
type Option func(*Service)

// WithHashCost sets the bcrypt cost used for new passwords.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

func NewService(store Store, v validator.Validator, opts ...Option) *Service {
	s := &Service{
		store:     store,
		validator: v,
		hashCost:  bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates the sign-up form and creates the account. Validation
// problems come back as *FormErrors.
func (s *Service) Register(ctx context.Context, form Registration) (*User, error) {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)

	ferr := &FormErrors{}

	if form.Username == "" {
		ferr.add("username", msgRequired)
	} else if err := s.validator.ValidateUsername(form.Username); err != nil {
		ferr.add("username", capitalize(err.Error()))
	} else {
		taken, err := s.store.UsernameExists(ctx, form.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if taken {
			ferr.add("username", msgUsernameTaken)
		}
	}

	if form.Email == "" {
		ferr.add("email", msgRequired)
	} else if err := s.validator.ValidateEmail(form.Email); err != nil {
		ferr.add("email", capitalize(err.Error()))
	} else {
		taken, err := s.store.EmailExists(ctx, form.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			ferr.add("email", msgEmailTaken)
		}
	}

	if form.Password1 == "" {
		ferr.add("password1", msgRequired)
	} else if err := s.validator.ValidatePassword(form.Password1); err != nil {
		ferr.add("password1", capitalize(err.Error()))
	}
	if form.Password2 == "" {
		ferr.add("password2", msgRequired)
	}

	if form.Password1 != "" && form.Password2 != "" && form.Password1 != form.Password2 {
		ferr.addNonField(msgPasswordMismatch)
	}

	if !ferr.empty() {
		return nil, ferr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password1), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.store.CreateUser(ctx, form.Username, form.Email, string(hash))
	switch {
	case errors.Is(err, apperrors.ErrUsernameTaken):
		ferr.add("username", msgUsernameTaken)
		return nil, ferr
	case errors.Is(err, apperrors.ErrEmailTaken):
		ferr.add("email", msgEmailTaken)
		return nil, ferr
	case err != nil:
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

// Authenticate checks the login form. Unknown usernames and wrong passwords
// come back as *FormErrors.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (*User, error) {
	ferr := &FormErrors{}
	if creds.Username == "" {
		ferr.add("username", msgRequired)
	}
	if creds.Password == "" {
		ferr.add("password", msgRequired)
	}
	if !ferr.empty() {
		return nil, ferr
	}

	u, err := s.store.GetUserByUsername(ctx, creds.Username)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		ferr.addNonField(msgUnknownUsername)
		return nil, ferr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)); err != nil {
		ferr.addNonField(msgWrongPassword)
		return nil, ferr
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.store.GetUserByID(ctx, id)
}

// List returns the whole directory in id order.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

func capitalize(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
