// Package services implements the application's business logic
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gestureview/backend/internal/models"
	"github.com/gestureview/backend/internal/repositories"
	"github.com/gestureview/backend/internal/security"
	"github.com/gestureview/backend/internal/session"
	"go.uber.org/zap"
)

// Service errors
var (
	// ErrInvalidCredentials is returned on login failure. Unknown
	// usernames and wrong passwords are indistinguishable.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Default admin credentials created on first run when no admin exists.
// A known default is a hardening gap; the startup log warns about it.
const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
)

// UserRepository is the interface that wraps methods for user data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// Returns repositories.ErrDuplicateUsername when the username is taken.
	Create(ctx context.Context, user *models.User) error
	// Method GetByUsername retrieves a user by username.
	//
	// Returns repositories.ErrUserNotFound when no such user exists.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// Method ExistsByUsername checks if a user with such username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// Method HasAdmin checks if any admin user exists.
	HasAdmin(ctx context.Context) (bool, error)
}

// authService implements authentication business logic
type authService struct {
	userRepo UserRepository
	sessions session.Store
	idle     time.Duration
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo UserRepository, sessions session.Store, idle time.Duration, logger *zap.Logger) *authService {
	return &authService{
		userRepo: userRepo,
		sessions: sessions,
		idle:     idle,
		logger:   logger,
	}
}

// Login authenticates a user and establishes a session. The session
// copies the user's role at login time; it is not re-checked afterwards.
func (s *authService) Login(ctx context.Context, username, password string) (*session.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := security.VerifyPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, security.ErrHashMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	token, err := session.GenerateToken()
	if err != nil {
		return nil, err
	}

	sess := session.Session{
		Token:     token,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(s.idle),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("user logged in",
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)),
	)
	return &sess, nil
}

// Register creates a new user account with role=user
func (s *authService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}
	if password == "" {
		return nil, fmt.Errorf("password cannot be empty")
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, repositories.ErrDuplicateUsername
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         models.RoleUser, // Default role
	}
	// The repository maps unique violations to ErrDuplicateUsername, so
	// a race between the existence check and the insert still surfaces
	// as a duplicate, not as an internal error.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("username", user.Username))
	return user, nil
}

// Logout invalidates a session; idempotent
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// EnsureDefaultAdmin creates the bootstrap admin account when the store
// holds no admin record. The default credential is well known: rotate it
// before exposing the service.
func (s *authService) EnsureDefaultAdmin(ctx context.Context) error {
	hasAdmin, err := s.userRepo.HasAdmin(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}
	if hasAdmin {
		return nil
	}

	passwordHash, err := security.HashPassword(defaultAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash default admin password: %w", err)
	}

	admin := &models.User{
		Username:     defaultAdminUsername,
		PasswordHash: passwordHash,
		Role:         models.RoleAdmin,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		// Another instance may have bootstrapped concurrently
		if errors.Is(err, repositories.ErrDuplicateUsername) {
			return nil
		}
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	s.logger.Warn("created default admin account; change its password immediately",
		zap.String("username", defaultAdminUsername),
	)
	return nil
}
