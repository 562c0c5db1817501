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

func TestSeedDemoData(t *testing.T) {
	t.Parallel()
	store := repository.NewMemoryStore()
	auth := NewAuthService(store, store, time.Hour, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, SeedDemoData(ctx, auth, store, zap.NewNop()))
	// second run is a no-op
	require.NoError(t, SeedDemoData(ctx, auth, store, zap.NewNop()))

	_, martha, err := auth.Login(ctx, "martha", "SafetyFirst2025!")
	require.NoError(t, err)
	require.Equal(t, "Martha Johnson", martha.Name)

	_, robert, err := auth.Login(ctx, "robert", "Care@Robert2025")
	require.NoError(t, err)
	require.Equal(t, models.RoleCaregiver, robert.Role)

	members, err := store.GetFamilyMembers(ctx, martha.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)
	require.Equal(t, []string{"Son", "Daughter", "Caregiver"}, []string{
		members[0].Relationship, members[1].Relationship, members[2].Relationship,
	})

	status, err := store.GetLatestStatus(ctx, martha.ID)
	require.NoError(t, err)
	require.Equal(t, 85, *status.BatteryLevel)

	location, err := store.GetLocation(ctx, martha.ID)
	require.NoError(t, err)
	require.Equal(t, "40.7128", location.Latitude)
	require.Equal(t, "123 Main Street, Anytown", *location.Address)
}
