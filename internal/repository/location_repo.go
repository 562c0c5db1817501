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

// LocationRepository handles database operations for reported locations
type LocationRepository struct {
	db  *database.DB
	now func() time.Time
}

const locationColumns = "id, user_id, latitude, longitude, address, recorded_at"

// CreateLocation appends a location for the user
func (r *LocationRepository) CreateLocation(ctx context.Context, location models.NewLocation) (*models.Location, error) {
	if err := ensureUser(ctx, r.db, location.UserID); err != nil {
		return nil, err
	}

	recordedAt := stamp(r.now)
	query := `
		INSERT INTO locations (user_id, latitude, longitude, address, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, location.UserID, location.Latitude, location.Longitude, nullString(location.Address), recordedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	return &models.Location{
		ID:        id,
		UserID:    location.UserID,
		Latitude:  location.Latitude,
		Longitude: location.Longitude,
		Address:   location.Address,
		Timestamp: recordedAt,
	}, nil
}

// GetLocation returns the user's most recent location
func (r *LocationRepository) GetLocation(ctx context.Context, userID int64) (*models.Location, error) {
	query := "SELECT " + locationColumns + " FROM locations WHERE user_id = ? ORDER BY recorded_at DESC, id DESC LIMIT 1"
	loc, err := scanLocation(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return loc, nil
}

// GetLocationsInTimeRange returns locations with start <= timestamp <= end, newest first
func (r *LocationRepository) GetLocationsInTimeRange(ctx context.Context, userID int64, start, end time.Time) ([]models.Location, error) {
	query := "SELECT " + locationColumns + ` FROM locations
		WHERE user_id = ? AND recorded_at >= ? AND recorded_at <= ?
		ORDER BY recorded_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	locations := make([]models.Location, 0)
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, *loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate locations: %w", err)
	}
	return locations, nil
}

func scanLocation(row rowScanner) (*models.Location, error) {
	loc := &models.Location{}
	var address sql.NullString
	if err := row.Scan(&loc.ID, &loc.UserID, &loc.Latitude, &loc.Longitude, &address, &loc.Timestamp); err != nil {
		return nil, err
	}
	loc.Address = stringPtr(address)
	return loc, nil
}

// ensureUser maps a missing owner to ErrUserNotFound before an insert
func ensureUser(ctx context.Context, db *database.DB, userID int64) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE id = ?", userID).Scan(&count); err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}
