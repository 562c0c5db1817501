package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"familyconnect/internal/database"
	"familyconnect/internal/models"
)

// CheckInRepository handles database operations for check-ins
type CheckInRepository struct {
	db  *database.DB
	now func() time.Time
}

// CreateCheckIn appends a check-in; mood defaults to good
func (r *CheckInRepository) CreateCheckIn(ctx context.Context, checkIn models.NewCheckIn) (*models.CheckIn, error) {
	if err := ensureUser(ctx, r.db, checkIn.UserID); err != nil {
		return nil, err
	}

	mood := checkIn.Mood
	if mood == "" {
		mood = models.MoodGood
	}
	recordedAt := stamp(r.now)

	query := `
		INSERT INTO check_ins (user_id, message, mood, recorded_at)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, checkIn.UserID, nullString(checkIn.Message), mood, recordedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create check-in: %w", err)
	}

	return &models.CheckIn{
		ID:        id,
		UserID:    checkIn.UserID,
		Message:   checkIn.Message,
		Mood:      mood,
		Timestamp: recordedAt,
	}, nil
}

// GetRecentCheckIns returns at most limit check-ins, newest first
func (r *CheckInRepository) GetRecentCheckIns(ctx context.Context, userID int64, limit int) ([]models.CheckIn, error) {
	if limit <= 0 {
		limit = DefaultCheckInLimit
	}

	query := `
		SELECT id, user_id, message, mood, recorded_at
		FROM check_ins
		WHERE user_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer rows.Close()

	checkIns := make([]models.CheckIn, 0)
	for rows.Next() {
		var c models.CheckIn
		var message sql.NullString
		if err := rows.Scan(&c.ID, &c.UserID, &message, &c.Mood, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		c.Message = stringPtr(message)
		checkIns = append(checkIns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate check-ins: %w", err)
	}
	return checkIns, nil
}
