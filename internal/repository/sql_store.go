package repository

import (
	"database/sql"
	"time"

	"familyconnect/internal/database"
)

// SQLStore implements Store on top of a dialect-aware database connection.
// Row timestamps are assigned here rather than by the database so that every
// dialect orders them the same way.
type SQLStore struct {
	*UserRepository
	*LocationRepository
	*StatusRepository
	*FamilyRepository
	*CheckInRepository
	*SessionRepository
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore builds the per-entity repositories over db
func NewSQLStore(db *database.DB, opts ...Option) *SQLStore {
	o := applyOptions(opts)
	status := &StatusRepository{db: db, now: o.now}
	return &SQLStore{
		UserRepository:     &UserRepository{db: db, now: o.now},
		LocationRepository: &LocationRepository{db: db, now: o.now},
		StatusRepository:   status,
		FamilyRepository:   &FamilyRepository{db: db, now: o.now, status: status},
		CheckInRepository:  &CheckInRepository{db: db, now: o.now},
		SessionRepository:  &SessionRepository{db: db, now: o.now},
	}
}

// stamp returns the current instant in UTC so text-backed sqlite columns sort correctly
func stamp(now func() time.Time) time.Time {
	return now().UTC()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}
