package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"familyconnect/internal/models"
)

// stepClock hands out the given instants in order, then keeps returning the last one
type stepClock struct {
	times []time.Time
	i     int
}

func (c *stepClock) now() time.Time {
	t := c.times[c.i]
	if c.i < len(c.times)-1 {
		c.i++
	}
	return t
}

func newTestUser(t *testing.T, s *MemoryStore, username string) *models.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), models.NewUser{
		Username:     username,
		PasswordHash: "hash",
		Name:         username,
	})
	require.NoError(t, err)
	return user
}

func TestMemoryStore_CreateUser(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	first := newTestUser(t, s, "john")
	second := newTestUser(t, s, "sarah")

	require.Equal(t, int64(1), first.ID)
	require.Equal(t, int64(2), second.ID)
	require.Equal(t, models.RoleMember, first.Role)

	_, err := s.CreateUser(ctx, models.NewUser{Username: "john"})
	require.ErrorIs(t, err, ErrUsernameTaken)

	got, err := s.GetUserByUsername(ctx, "sarah")
	require.NoError(t, err)
	require.Equal(t, second.ID, got.ID)

	_, err = s.GetUserByUsername(ctx, "Sarah")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.GetUser(ctx, 99)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryStore_LatestStatusByTimestamp(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &stepClock{times: []time.Time{
		base, // user created
		base.Add(2 * time.Hour),
		base.Add(3 * time.Hour),
		base.Add(1 * time.Hour),
	}}
	s := NewMemoryStore(WithClock(clock.now))
	ctx := context.Background()
	user := newTestUser(t, s, "john")

	battery := []int{10, 20, 30}
	for i := range battery {
		_, err := s.CreateStatusUpdate(ctx, models.NewStatusUpdate{
			UserID:       user.ID,
			Status:       models.StatusOK,
			BatteryLevel: &battery[i],
		})
		require.NoError(t, err)
	}

	latest, err := s.GetLatestStatus(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, base.Add(3*time.Hour), latest.Timestamp)
	require.Equal(t, 20, *latest.BatteryLevel)
}

func TestMemoryStore_StatusDefaults(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()
	user := newTestUser(t, s, "john")

	_, err := s.GetLatestStatus(ctx, user.ID)
	require.ErrorIs(t, err, ErrNotFound)

	created, err := s.CreateStatusUpdate(ctx, models.NewStatusUpdate{UserID: user.ID})
	require.NoError(t, err)
	require.Equal(t, models.StatusOK, created.Status)
	require.Nil(t, created.BatteryLevel)

	_, err = s.CreateStatusUpdate(ctx, models.NewStatusUpdate{UserID: 404})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryStore_LocationHistoryWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	clock := &stepClock{times: []time.Time{
		now.Add(-72 * time.Hour), // user created
		now.Add(-48 * time.Hour),
		now.Add(-24 * time.Hour),
		now.Add(-2 * time.Hour),
		now,
		now.Add(time.Minute),
	}}
	s := NewMemoryStore(WithClock(clock.now))
	ctx := context.Background()
	user := newTestUser(t, s, "john")

	for i := 0; i < 5; i++ {
		_, err := s.CreateLocation(ctx, models.NewLocation{UserID: user.ID, Latitude: "40.7128", Longitude: "-74.0060"})
		require.NoError(t, err)
	}

	history, err := s.GetLocationsInTimeRange(ctx, user.ID, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, now, history[0].Timestamp)
	require.Equal(t, now.Add(-2*time.Hour), history[1].Timestamp)
	require.Equal(t, now.Add(-24*time.Hour), history[2].Timestamp)

	current, err := s.GetLocation(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Minute), current.Timestamp)

	empty, err := s.GetLocationsInTimeRange(ctx, 404, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	_, err = s.GetLocation(ctx, 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_FamilyMembers(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	s := NewMemoryStore(WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	martha := newTestUser(t, s, "martha")
	john := newTestUser(t, s, "john")
	sarah := newTestUser(t, s, "sarah")

	_, err := s.AddFamilyConnection(ctx, models.FamilyConnection{UserID: martha.ID, FamilyMemberID: john.ID, Relationship: "Son"})
	require.NoError(t, err)
	_, err = s.AddFamilyConnection(ctx, models.FamilyConnection{UserID: martha.ID, FamilyMemberID: sarah.ID, Relationship: "Daughter"})
	require.NoError(t, err)

	_, err = s.CreateStatusUpdate(ctx, models.NewStatusUpdate{UserID: john.ID, Status: models.StatusOK})
	require.NoError(t, err)

	members, err := s.GetFamilyMembers(ctx, martha.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, "john", members[0].Username)
	require.Equal(t, "Son", members[0].Relationship)
	require.Equal(t, fixed, members[0].LastSeen)
	require.Equal(t, "Daughter", members[1].Relationship)

	// connections are directed
	reverse, err := s.GetFamilyMembers(ctx, john.ID)
	require.NoError(t, err)
	require.Empty(t, reverse)

	watchers, err := s.GetFamilyWatchers(ctx, john.ID)
	require.NoError(t, err)
	require.Len(t, watchers, 1)
	require.Equal(t, martha.ID, watchers[0].ID)

	_, err = s.AddFamilyConnection(ctx, models.FamilyConnection{UserID: martha.ID, FamilyMemberID: 404, Relationship: "Ghost"})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryStore_FamilyMembersDanglingConnection(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	martha := newTestUser(t, s, "martha")
	john := newTestUser(t, s, "john")
	_, err := s.AddFamilyConnection(ctx, models.FamilyConnection{UserID: martha.ID, FamilyMemberID: john.ID, Relationship: "Son"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, john.ID))

	_, err = s.GetFamilyMembers(ctx, martha.ID)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUserNotFound))
}

func TestMemoryStore_RecentCheckIns(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)
	times := []time.Time{base}
	for i := 1; i <= 12; i++ {
		times = append(times, base.Add(time.Duration(i)*time.Minute))
	}
	clock := &stepClock{times: times}
	s := NewMemoryStore(WithClock(clock.now))
	ctx := context.Background()
	user := newTestUser(t, s, "john")

	msg := "All good"
	first, err := s.CreateCheckIn(ctx, models.NewCheckIn{UserID: user.ID, Message: &msg})
	require.NoError(t, err)
	require.Equal(t, models.MoodGood, first.Mood)

	for i := 0; i < 11; i++ {
		_, err := s.CreateCheckIn(ctx, models.NewCheckIn{UserID: user.ID, Mood: models.MoodOkay})
		require.NoError(t, err)
	}

	recent, err := s.GetRecentCheckIns(ctx, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, recent, DefaultCheckInLimit)
	require.Equal(t, int64(12), recent[0].ID)

	latest, err := s.GetRecentCheckIns(ctx, user.ID, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	require.Equal(t, int64(12), latest[0].ID)

	none, err := s.GetRecentCheckIns(ctx, 404, 5)
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)
}

func TestMemoryStore_Sessions(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.CreateSession(ctx, "live", 1, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = s.CreateSession(ctx, "stale", 1, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	require.NoError(t, s.DeleteExpiredSessions(ctx))

	_, err = s.GetSession(ctx, "stale")
	require.ErrorIs(t, err, ErrNotFound)

	session, err := s.GetSession(ctx, "live")
	require.NoError(t, err)
	require.Equal(t, int64(1), session.UserID)

	require.NoError(t, s.DeleteSession(ctx, "live"))
	require.NoError(t, s.DeleteSession(ctx, "live"))

	_, err = s.GetSession(ctx, "live")
	require.ErrorIs(t, err, ErrNotFound)
}
