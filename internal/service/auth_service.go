package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"familyconnect/internal/models"
	"familyconnect/internal/repository"
	"familyconnect/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	// ErrSessionUserGone means the session was valid but its user no longer exists
	ErrSessionUserGone = errors.New("session user not found")
)

// NewAccount holds the plaintext fields needed to register a user
type NewAccount struct {
	Username string
	Password string
	Name     string
	Role     string
	Email    *string
}

// AuthService handles authentication business logic
type AuthService struct {
	users           repository.UserStore
	sessions        repository.SessionStore
	sessionDuration time.Duration
	logger          *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users repository.UserStore, sessions repository.SessionStore, sessionDuration time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:           users,
		sessions:        sessions,
		sessionDuration: sessionDuration,
		logger:          logger,
	}
}

// Register creates a user with a bcrypt-hashed password
func (s *AuthService) Register(ctx context.Context, account NewAccount) (*models.User, error) {
	hash, err := security.HashPassword(account.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, models.NewUser{
		Username:     strings.TrimSpace(account.Username),
		PasswordHash: hash,
		Name:         account.Name,
		Role:         account.Role,
		Email:        account.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Session, *models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.sessions.CreateSession(ctx, security.GenerateSessionID(), user.ID, time.Now().Add(s.sessionDuration))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	return session, user, nil
}

// ValidateSession checks if a session is valid and returns the associated user.
// Expired sessions and sessions whose user is gone are destroyed.
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	session, err := s.sessions.GetSession(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.IsExpired() {
		s.destroy(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	user, err := s.users.GetUser(ctx, session.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		s.destroy(ctx, sessionID)
		return nil, ErrSessionUserGone
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Logout invalidates a session. Unknown ids are not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the store
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) error {
	if err := s.sessions.DeleteExpiredSessions(ctx); err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return nil
}

// SessionDuration is the lifetime given to new sessions
func (s *AuthService) SessionDuration() time.Duration {
	return s.sessionDuration
}

func (s *AuthService) destroy(ctx context.Context, sessionID string) {
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		s.logger.Warn("failed to delete session", zap.Error(err))
	}
}
