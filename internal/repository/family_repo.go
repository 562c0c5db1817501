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

// FamilyRepository handles database operations for directed family connections
type FamilyRepository struct {
	db     *database.DB
	now    func() time.Time
	status *StatusRepository
}

// AddFamilyConnection links a user to a family member they may watch
func (r *FamilyRepository) AddFamilyConnection(ctx context.Context, connection models.FamilyConnection) (*models.FamilyConnection, error) {
	if err := ensureUser(ctx, r.db, connection.UserID); err != nil {
		return nil, err
	}
	if err := ensureUser(ctx, r.db, connection.FamilyMemberID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO family_connections (user_id, family_member_id, relationship)
		VALUES (?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, connection.UserID, connection.FamilyMemberID, connection.Relationship)
	if err != nil {
		return nil, fmt.Errorf("failed to add family connection: %w", err)
	}

	connection.ID = id
	return &connection, nil
}

// GetFamilyMembers resolves every connection owned by userID in insertion order
func (r *FamilyRepository) GetFamilyMembers(ctx context.Context, userID int64) ([]models.FamilyMember, error) {
	query := `
		SELECT fc.family_member_id, fc.relationship,
		       u.id, u.username, u.password_hash, u.name, u.role, u.email, u.created_at
		FROM family_connections fc
		LEFT JOIN users u ON u.id = fc.family_member_id
		WHERE fc.user_id = ?
		ORDER BY fc.id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query family members: %w", err)
	}

	type joined struct {
		memberID     int64
		relationship string
		user         *models.User
	}
	var found []joined
	for rows.Next() {
		var (
			j            joined
			id           sql.NullInt64
			username     sql.NullString
			passwordHash sql.NullString
			name         sql.NullString
			role         sql.NullString
			email        sql.NullString
			createdAt    sql.NullTime
		)
		if err := rows.Scan(&j.memberID, &j.relationship, &id, &username, &passwordHash, &name, &role, &email, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		if id.Valid {
			j.user = &models.User{
				ID:           id.Int64,
				Username:     username.String,
				PasswordHash: passwordHash.String,
				Name:         name.String,
				Role:         role.String,
				Email:        stringPtr(email),
				CreatedAt:    createdAt.Time,
			}
		}
		found = append(found, j)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate family members: %w", err)
	}
	rows.Close()

	members := make([]models.FamilyMember, 0, len(found))
	for _, j := range found {
		if j.user == nil {
			return nil, danglingMemberError(j.memberID)
		}

		lastSeen := r.now()
		latest, err := r.status.GetLatestStatus(ctx, j.memberID)
		switch {
		case err == nil:
			lastSeen = latest.Timestamp
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}

		members = append(members, models.FamilyMember{
			User:         *j.user,
			Relationship: j.relationship,
			LastSeen:     lastSeen,
		})
	}
	return members, nil
}

// GetFamilyWatchers returns the owners of connections that point at userID
func (r *FamilyRepository) GetFamilyWatchers(ctx context.Context, userID int64) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.password_hash, u.name, u.role, u.email, u.created_at
		FROM users u
		WHERE u.id IN (SELECT fc.user_id FROM family_connections fc WHERE fc.family_member_id = ?)
		ORDER BY u.id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query family watchers: %w", err)
	}
	defer rows.Close()

	var watchers []models.User
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan family watcher: %w", err)
		}
		watchers = append(watchers, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate family watchers: %w", err)
	}
	return watchers, nil
}
