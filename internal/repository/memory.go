package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"familyconnect/internal/models"
)

// MemoryStore keeps every collection in process memory, grouped per owner
// in append-only slices. A single RWMutex serializes writers so a request
// never observes a partial write.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	users             map[int64]models.User
	locations         map[int64][]models.Location
	statusUpdates     map[int64][]models.StatusUpdate
	familyConnections map[int64][]models.FamilyConnection
	checkIns          map[int64][]models.CheckIn
	sessions          map[string]models.Session

	lastUserID       int64
	lastLocationID   int64
	lastStatusID     int64
	lastConnectionID int64
	lastCheckInID    int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := applyOptions(opts)
	s := &MemoryStore{
		now:               o.now,
		users:             make(map[int64]models.User),
		locations:         make(map[int64][]models.Location),
		statusUpdates:     make(map[int64][]models.StatusUpdate),
		familyConnections: make(map[int64][]models.FamilyConnection),
		checkIns:          make(map[int64][]models.CheckIn),
		sessions:          make(map[string]models.Session),
	}
	return s
}

// newestFirst orders rows by timestamp descending, newer ids first on ties
func newestFirst(aTime, bTime time.Time, aID, bID int64) int {
	if c := bTime.Compare(aTime); c != 0 {
		return c
	}
	return cmp.Compare(bID, aID)
}

func (s *MemoryStore) CreateUser(_ context.Context, user models.NewUser) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return nil, ErrUsernameTaken
		}
	}

	role := user.Role
	if role == "" {
		role = models.RoleMember
	}

	s.lastUserID++
	created := models.User{
		ID:           s.lastUserID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Name:         user.Name,
		Role:         role,
		Email:        user.Email,
		CreatedAt:    s.now(),
	}
	s.users[created.ID] = created

	return &created, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *MemoryStore) CreateLocation(_ context.Context, location models.NewLocation) (*models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[location.UserID]; !ok {
		return nil, ErrUserNotFound
	}

	s.lastLocationID++
	created := models.Location{
		ID:        s.lastLocationID,
		UserID:    location.UserID,
		Latitude:  location.Latitude,
		Longitude: location.Longitude,
		Address:   location.Address,
		Timestamp: s.now(),
	}
	s.locations[location.UserID] = append(s.locations[location.UserID], created)

	return &created, nil
}

func (s *MemoryStore) GetLocation(_ context.Context, userID int64) (*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.sortedLocations(userID)
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (s *MemoryStore) GetLocationsInTimeRange(_ context.Context, userID int64, start, end time.Time) ([]models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Location, 0)
	for _, loc := range s.sortedLocations(userID) {
		if loc.Timestamp.Before(start) || loc.Timestamp.After(end) {
			continue
		}
		result = append(result, loc)
	}
	return result, nil
}

// sortedLocations returns a copy of a user's locations, newest first. Caller holds the lock.
func (s *MemoryStore) sortedLocations(userID int64) []models.Location {
	rows := slices.Clone(s.locations[userID])
	slices.SortFunc(rows, func(a, b models.Location) int {
		return newestFirst(a.Timestamp, b.Timestamp, a.ID, b.ID)
	})
	return rows
}

func (s *MemoryStore) CreateStatusUpdate(_ context.Context, status models.NewStatusUpdate) (*models.StatusUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[status.UserID]; !ok {
		return nil, ErrUserNotFound
	}

	value := status.Status
	if value == "" {
		value = models.StatusOK
	}

	s.lastStatusID++
	created := models.StatusUpdate{
		ID:           s.lastStatusID,
		UserID:       status.UserID,
		Status:       value,
		BatteryLevel: status.BatteryLevel,
		Timestamp:    s.now(),
	}
	s.statusUpdates[status.UserID] = append(s.statusUpdates[status.UserID], created)

	return &created, nil
}

func (s *MemoryStore) GetLatestStatus(_ context.Context, userID int64) (*models.StatusUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest, ok := s.latestStatus(userID)
	if !ok {
		return nil, ErrNotFound
	}
	return &latest, nil
}

// latestStatus picks the max-timestamp status of a user. Caller holds the lock.
func (s *MemoryStore) latestStatus(userID int64) (models.StatusUpdate, bool) {
	rows := s.statusUpdates[userID]
	if len(rows) == 0 {
		return models.StatusUpdate{}, false
	}
	latest := slices.MinFunc(rows, func(a, b models.StatusUpdate) int {
		return newestFirst(a.Timestamp, b.Timestamp, a.ID, b.ID)
	})
	return latest, true
}

func (s *MemoryStore) AddFamilyConnection(_ context.Context, connection models.FamilyConnection) (*models.FamilyConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[connection.UserID]; !ok {
		return nil, ErrUserNotFound
	}
	if _, ok := s.users[connection.FamilyMemberID]; !ok {
		return nil, ErrUserNotFound
	}

	s.lastConnectionID++
	connection.ID = s.lastConnectionID
	s.familyConnections[connection.UserID] = append(s.familyConnections[connection.UserID], connection)

	return &connection, nil
}

func (s *MemoryStore) GetFamilyMembers(_ context.Context, userID int64) ([]models.FamilyMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	connections := s.familyConnections[userID]
	members := make([]models.FamilyMember, 0, len(connections))
	for _, conn := range connections {
		user, ok := s.users[conn.FamilyMemberID]
		if !ok {
			return nil, danglingMemberError(conn.FamilyMemberID)
		}

		lastSeen := s.now()
		if latest, ok := s.latestStatus(conn.FamilyMemberID); ok {
			lastSeen = latest.Timestamp
		}

		members = append(members, models.FamilyMember{
			User:         user,
			Relationship: conn.Relationship,
			LastSeen:     lastSeen,
		})
	}
	return members, nil
}

func (s *MemoryStore) GetFamilyWatchers(_ context.Context, userID int64) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var watchers []models.User
	for ownerID, connections := range s.familyConnections {
		for _, conn := range connections {
			if conn.FamilyMemberID != userID {
				continue
			}
			owner, ok := s.users[ownerID]
			if !ok {
				return nil, fmt.Errorf("connection %d owner: %w", conn.ID, ErrUserNotFound)
			}
			watchers = append(watchers, owner)
			break
		}
	}
	slices.SortFunc(watchers, func(a, b models.User) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return watchers, nil
}

func (s *MemoryStore) CreateCheckIn(_ context.Context, checkIn models.NewCheckIn) (*models.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[checkIn.UserID]; !ok {
		return nil, ErrUserNotFound
	}

	mood := checkIn.Mood
	if mood == "" {
		mood = models.MoodGood
	}

	s.lastCheckInID++
	created := models.CheckIn{
		ID:        s.lastCheckInID,
		UserID:    checkIn.UserID,
		Message:   checkIn.Message,
		Mood:      mood,
		Timestamp: s.now(),
	}
	s.checkIns[checkIn.UserID] = append(s.checkIns[checkIn.UserID], created)

	return &created, nil
}

func (s *MemoryStore) GetRecentCheckIns(_ context.Context, userID int64, limit int) ([]models.CheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultCheckInLimit
	}

	rows := slices.Clone(s.checkIns[userID])
	slices.SortFunc(rows, func(a, b models.CheckIn) int {
		return newestFirst(a.Timestamp, b.Timestamp, a.ID, b.ID)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	if rows == nil {
		rows = make([]models.CheckIn, 0)
	}
	return rows, nil
}

func (s *MemoryStore) CreateSession(_ context.Context, sessionID string, userID int64, expiresAt time.Time) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
	}
	s.sessions[sessionID] = session

	return &session, nil
}

func (s *MemoryStore) GetSession(_ context.Context, sessionID string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &session, nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) DeleteExpiredSessions(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
	return nil
}

// DeleteUser removes a user account. It exists for administrative cleanup
// and tests; the HTTP API never deletes anything. Rows owned by the user are
// kept, so connections pointing at it become dangling.
func (s *MemoryStore) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}
