// Package repository owns every entity collection of the service. Two
// backends implement Store: MemoryStore, the default, and SQLStore for
// sqlite, postgres and mysql. Sessions may additionally live in Redis.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"familyconnect/internal/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// DefaultCheckInLimit is used when a caller asks for recent check-ins
// without a positive limit.
const DefaultCheckInLimit = 10

// UserStore handles user accounts
type UserStore interface {
	CreateUser(ctx context.Context, user models.NewUser) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// SafetyStore handles locations, status updates, family connections and check-ins.
// All rows are append-only.
type SafetyStore interface {
	CreateLocation(ctx context.Context, location models.NewLocation) (*models.Location, error)
	GetLocation(ctx context.Context, userID int64) (*models.Location, error)
	GetLocationsInTimeRange(ctx context.Context, userID int64, start, end time.Time) ([]models.Location, error)

	CreateStatusUpdate(ctx context.Context, status models.NewStatusUpdate) (*models.StatusUpdate, error)
	GetLatestStatus(ctx context.Context, userID int64) (*models.StatusUpdate, error)

	AddFamilyConnection(ctx context.Context, connection models.FamilyConnection) (*models.FamilyConnection, error)
	GetFamilyMembers(ctx context.Context, userID int64) ([]models.FamilyMember, error)
	GetFamilyWatchers(ctx context.Context, userID int64) ([]models.User, error)

	CreateCheckIn(ctx context.Context, checkIn models.NewCheckIn) (*models.CheckIn, error)
	GetRecentCheckIns(ctx context.Context, userID int64, limit int) ([]models.CheckIn, error)
}

// SessionStore maps opaque session ids to user ids
type SessionStore interface {
	CreateSession(ctx context.Context, sessionID string, userID int64, expiresAt time.Time) (*models.Session, error)
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteExpiredSessions(ctx context.Context) error
}

// Store is the full repository contract
type Store interface {
	UserStore
	SafetyStore
	SessionStore
}

// Option configures a store backend
type Option interface {
	apply(*options)
}

type optionFunc func(o *options)

func (f optionFunc) apply(o *options) { f(o) }

type options struct {
	now func() time.Time
}

func applyOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

// WithClock replaces time.Now as the source of row timestamps
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		o.now = now
	})
}

// danglingMemberError reports a family connection whose target user is gone.
// Such rows indicate corrupted data and are surfaced rather than skipped.
func danglingMemberError(memberID int64) error {
	return fmt.Errorf("family member with ID %d not found: %w", memberID, ErrUserNotFound)
}
