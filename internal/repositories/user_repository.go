// Package repositories implements data access over database/sql
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gestureview/backend/internal/models"
	"go.uber.org/zap"
)

// Repository errors
var (
	// ErrUserNotFound is returned when no user matches the lookup
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUsername is returned when the username is already taken
	ErrDuplicateUsername = errors.New("username already exists")
)

// userRepository implements user data access
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user into the database. Unique violations on the
// username column are mapped to ErrDuplicateUsername.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password_hash, role)
		VALUES (?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, user.Username, user.PasswordHash, user.Role)
	if err != nil {
		if isDuplicateError(err) {
			return ErrDuplicateUsername
		}
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = int(id)
	return nil
}

// GetByUsername retrieves a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, role
		FROM users
		WHERE username = ?
		LIMIT 1
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
	)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		r.logger.Error("failed to get user by username", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

// ExistsByUsername checks if a user exists with the given username
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM users WHERE username = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, username).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check username existence", zap.Error(err), zap.String("username", username))
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}

	return exists, nil
}

// HasAdmin checks if any admin user exists
func (r *userRepository) HasAdmin(ctx context.Context) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM users WHERE role = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, models.RoleAdmin).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check admin existence", zap.Error(err))
		return false, fmt.Errorf("failed to check admin existence: %w", err)
	}

	return exists, nil
}

// isDuplicateError detects unique-constraint violations for both
// supported drivers: MySQL error 1062 and SQLite's UNIQUE message.
func isDuplicateError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Error 1062") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
