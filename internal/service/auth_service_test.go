package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"familyconnect/internal/models"
	"familyconnect/internal/repository"
)

func newAuthFixture(t *testing.T) (*AuthService, *repository.MemoryStore, *models.User) {
	t.Helper()
	store := repository.NewMemoryStore()
	auth := NewAuthService(store, store, 7*24*time.Hour, zap.NewNop())

	user, err := auth.Register(context.Background(), NewAccount{
		Username: "john",
		Password: "JohnGPS2025#",
		Name:     "John Smith",
	})
	require.NoError(t, err)
	return auth, store, user
}

func TestAuthService_Register_HashesPassword(t *testing.T) {
	t.Parallel()
	_, _, user := newAuthFixture(t)

	require.NotEqual(t, "JohnGPS2025#", user.PasswordHash)
	require.Equal(t, models.RoleMember, user.Role)
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	auth, _, user := newAuthFixture(t)
	ctx := context.Background()

	session, got, err := auth.Login(ctx, "  john ", "JohnGPS2025#")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, user.ID, session.UserID)
	require.WithinDuration(t, time.Now().Add(7*24*time.Hour), session.ExpiresAt, time.Minute)

	current, err := auth.ValidateSession(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, current.ID)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	t.Parallel()
	auth, _, _ := newAuthFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "unknown user", username: "nobody", password: "JohnGPS2025#"},
		{name: "wrong password", username: "john", password: "wrong"},
		{name: "password not trimmed", username: "john", password: " JohnGPS2025# "},
		{name: "username case sensitive", username: "John", password: "JohnGPS2025#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, user, err := auth.Login(ctx, tt.username, tt.password)
			require.ErrorIs(t, err, ErrInvalidCredentials)
			require.Nil(t, session)
			require.Nil(t, user)
		})
	}
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()
	auth, store, user := newAuthFixture(t)
	ctx := context.Background()

	_, err := auth.ValidateSession(ctx, "")
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = auth.ValidateSession(ctx, "unknown")
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.CreateSession(ctx, "expired", user.ID, time.Now().Add(-time.Second))
	require.NoError(t, err)
	_, err = auth.ValidateSession(ctx, "expired")
	require.ErrorIs(t, err, ErrSessionExpired)
	_, err = store.GetSession(ctx, "expired")
	require.ErrorIs(t, err, repository.ErrNotFound, "expired session should be deleted")
}

func TestAuthService_ValidateSession_DeletedUser(t *testing.T) {
	t.Parallel()
	auth, store, user := newAuthFixture(t)
	ctx := context.Background()

	session, _, err := auth.Login(ctx, "john", "JohnGPS2025#")
	require.NoError(t, err)
	require.NoError(t, store.DeleteUser(ctx, user.ID))

	_, err = auth.ValidateSession(ctx, session.ID)
	require.ErrorIs(t, err, ErrSessionUserGone)

	_, err = store.GetSession(ctx, session.ID)
	require.ErrorIs(t, err, repository.ErrNotFound, "session of a deleted user should be destroyed")
}

func TestAuthService_Logout(t *testing.T) {
	t.Parallel()
	auth, _, _ := newAuthFixture(t)
	ctx := context.Background()

	session, _, err := auth.Login(ctx, "john", "JohnGPS2025#")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, session.ID))
	require.NoError(t, auth.Logout(ctx, session.ID))
	require.NoError(t, auth.Logout(ctx, ""))

	_, err = auth.ValidateSession(ctx, session.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAuthService_CleanupExpiredSessions(t *testing.T) {
	t.Parallel()
	auth, store, user := newAuthFixture(t)
	ctx := context.Background()

	_, err := store.CreateSession(ctx, "old", user.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = store.CreateSession(ctx, "fresh", user.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, auth.CleanupExpiredSessions(ctx))

	_, err = store.GetSession(ctx, "old")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.GetSession(ctx, "fresh")
	require.NoError(t, err)
}
