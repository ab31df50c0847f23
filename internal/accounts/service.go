package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cliphub/backend/internal/models"
	"github.com/cliphub/backend/internal/repositories"
)

const minPasswordLength = 8

var (
	// ErrPasswordTooShort indicates the password fails the length policy.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	// ErrUsernameTaken indicates another account already uses the username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrUsernameRequired indicates registration was attempted without a username.
	ErrUsernameRequired = errors.New("username is required")
	// ErrInvalidCredentials is returned for both unknown usernames and wrong
	// passwords so callers cannot probe which usernames exist.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Service creates accounts and verifies credentials against stored hashes.
type Service struct {
	users repositories.UserRepository

	// NowFunc overrides the clock in tests.
	NowFunc func() time.Time
}

// NewService constructs an account service over the provided repository.
func NewService(users repositories.UserRepository) *Service {
	return &Service{users: users}
}

// Register creates a regular (non-superuser) account.
func (s *Service) Register(ctx context.Context, username, password string) (models.User, error) {
	return s.create(ctx, username, password, false)
}

// EnsureSuperuser creates the named superuser account if it does not already
// exist. It is idempotent and safe to run at every startup.
func (s *Service) EnsureSuperuser(ctx context.Context, username, password string) (models.User, error) {
	existing, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, fmt.Errorf("look up superuser: %w", err)
	}

	user, err := s.create(ctx, username, password, true)
	if errors.Is(err, ErrUsernameTaken) {
		// Lost a create race with another instance; the account exists now.
		return s.users.FindByUsername(ctx, username)
	}
	return user, err
}

func (s *Service) create(ctx context.Context, username, password string, superuser bool) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, ErrUsernameRequired
	}
	if len(password) < minPasswordLength {
		return models.User{}, ErrPasswordTooShort
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return models.User{}, ErrUsernameTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, fmt.Errorf("check existing username: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hashed),
		IsSuperuser:  superuser,
		CreatedAt:    s.now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies the credentials and returns the matching account.
// Unknown usernames and wrong passwords produce the identical error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
