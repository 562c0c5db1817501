package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"familyconnect/internal/database"
	"familyconnect/internal/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db  *database.DB
	now func() time.Time
}

const userColumns = "id, username, password_hash, name, role, email, created_at"

// CreateUser inserts a new user. Usernames are unique.
func (r *UserRepository) CreateUser(ctx context.Context, user models.NewUser) (*models.User, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", user.Username).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists > 0 {
		return nil, ErrUsernameTaken
	}

	role := user.Role
	if role == "" {
		role = models.RoleMember
	}
	createdAt := stamp(r.now)

	query := `
		INSERT INTO users (username, password_hash, name, role, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, user.Username, user.PasswordHash, user.Name, role, nullString(user.Email), createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.User{
		ID:           id,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Name:         user.Name,
		Role:         role,
		Email:        user.Email,
		CreatedAt:    createdAt,
	}, nil
}

// GetUser retrieves a user by ID
func (r *UserRepository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by exact username
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = ?"
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

// DeleteUser removes a user account; rows owned by it are kept
func (r *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	user, err := scanUserRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var email sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&email,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Email = stringPtr(email)
	return user, nil
}
