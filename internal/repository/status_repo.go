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

// StatusRepository handles database operations for status updates
type StatusRepository struct {
	db  *database.DB
	now func() time.Time
}

// CreateStatusUpdate appends a status update; status defaults to ok
func (r *StatusRepository) CreateStatusUpdate(ctx context.Context, status models.NewStatusUpdate) (*models.StatusUpdate, error) {
	if err := ensureUser(ctx, r.db, status.UserID); err != nil {
		return nil, err
	}

	value := status.Status
	if value == "" {
		value = models.StatusOK
	}
	recordedAt := stamp(r.now)

	query := `
		INSERT INTO status_updates (user_id, status, battery_level, recorded_at)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, status.UserID, value, nullInt(status.BatteryLevel), recordedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create status update: %w", err)
	}

	return &models.StatusUpdate{
		ID:           id,
		UserID:       status.UserID,
		Status:       value,
		BatteryLevel: status.BatteryLevel,
		Timestamp:    recordedAt,
	}, nil
}

// GetLatestStatus returns the status update with the greatest timestamp
func (r *StatusRepository) GetLatestStatus(ctx context.Context, userID int64) (*models.StatusUpdate, error) {
	query := `
		SELECT id, user_id, status, battery_level, recorded_at
		FROM status_updates
		WHERE user_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`
	status := &models.StatusUpdate{}
	var battery sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&status.ID,
		&status.UserID,
		&status.Status,
		&battery,
		&status.Timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	status.BatteryLevel = intPtr(battery)
	return status, nil
}
