package auth

import (
	"context"
	"strings"
	"time"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
	"github.com/midasconsultingnet/successfuel-api-sub001/pkg/logger"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
)

// LoginResult carries the issued token and its expiry.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Roles      []string
	StationIDs []id.ID
	IsAdmin    bool
}

// Service handles login and account management.
type Service struct {
	users  UserRepository
	tokens *JWTService
}

// NewService creates the auth service.
func NewService(users UserRepository, tokens *JWTService) *Service {
	return &Service{users: users, tokens: tokens}
}

// Login verifies credentials and issues an access token. Repeated
// failures lock the account temporarily.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, apperror.NewUnauthorized("account is disabled")
	}
	if user.IsLocked() {
		return nil, apperror.NewUnauthorized("account is temporarily locked")
	}

	if !user.CheckPassword(password) {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= maxFailedLogins {
			until := time.Now().Add(lockoutDuration)
			user.LockedUntil = &until
			user.FailedLoginAttempts = 0
			logger.Warn(ctx, "account locked after repeated failures",
				"user_id", user.ID,
			)
		}
		if err := s.users.Update(ctx, user); err != nil {
			logger.Error(ctx, "record failed login", "error", err)
		}
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID)

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Register creates an account. Caller is responsible for authorization.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	user := NewUser(in.Email, in.FirstName, in.LastName)
	user.Roles = in.Roles
	user.StationIDs = in.StationIDs
	user.IsAdmin = in.IsAdmin

	if err := user.SetPassword(in.Password); err != nil {
		return nil, err
	}
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.NewConflict("email is already registered").
			WithDetail("email", user.Email)
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered", "user_id", user.ID, "email", user.Email)

	return user, nil
}

// GetByID retrieves a user.
func (s *Service) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// List lists users.
func (s *Service) List(ctx context.Context, filter UserFilter) ([]User, int, error) {
	return s.users.List(ctx, filter)
}

// ChangePassword updates a user's password after verifying the current
// one.
func (s *Service) ChangePassword(ctx context.Context, userID id.ID, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(current) {
		return apperror.NewUnauthorized("current password is incorrect")
	}
	if err := user.SetPassword(next); err != nil {
		return err
	}
	return s.users.Update(ctx, user)
}
