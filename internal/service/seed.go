package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"familyconnect/internal/models"
	"familyconnect/internal/repository"
)

type demoAccount struct {
	account      NewAccount
	relationship string
}

var demoAccounts = []demoAccount{
	{account: NewAccount{Username: "john", Password: "JohnGPS2025#", Name: "John Smith", Role: models.RoleMember}, relationship: "Son"},
	{account: NewAccount{Username: "sarah", Password: "Sarah$Family2025", Name: "Sarah Johnson", Role: models.RoleMember}, relationship: "Daughter"},
	{account: NewAccount{Username: "robert", Password: "Care@Robert2025", Name: "Robert Wilson", Role: models.RoleCaregiver}, relationship: "Caregiver"},
}

// SeedDemoData creates martha and her family if martha does not exist yet
func SeedDemoData(ctx context.Context, auth *AuthService, store repository.Store, logger *zap.Logger) error {
	_, err := store.GetUserByUsername(ctx, "martha")
	if err == nil {
		logger.Debug("demo data already present")
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("failed to check demo data: %w", err)
	}

	martha, err := auth.Register(ctx, NewAccount{
		Username: "martha",
		Password: "SafetyFirst2025!",
		Name:     "Martha Johnson",
		Role:     models.RoleMember,
	})
	if err != nil {
		return err
	}

	for _, demo := range demoAccounts {
		member, err := auth.Register(ctx, demo.account)
		if err != nil {
			return err
		}
		_, err = store.AddFamilyConnection(ctx, models.FamilyConnection{
			UserID:         martha.ID,
			FamilyMemberID: member.ID,
			Relationship:   demo.relationship,
		})
		if err != nil {
			return fmt.Errorf("failed to connect %s: %w", demo.account.Username, err)
		}
	}

	battery := 85
	if _, err := store.CreateStatusUpdate(ctx, models.NewStatusUpdate{
		UserID:       martha.ID,
		Status:       models.StatusOK,
		BatteryLevel: &battery,
	}); err != nil {
		return fmt.Errorf("failed to seed status: %w", err)
	}

	address := "123 Main Street, Anytown"
	if _, err := store.CreateLocation(ctx, models.NewLocation{
		UserID:    martha.ID,
		Latitude:  "40.7128",
		Longitude: "-74.0060",
		Address:   &address,
	}); err != nil {
		return fmt.Errorf("failed to seed location: %w", err)
	}

	logger.Info("demo data seeded", zap.Int("users", len(demoAccounts)+1))
	return nil
}
