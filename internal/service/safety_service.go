package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"familyconnect/internal/models"
	"familyconnect/internal/repository"
	"familyconnect/internal/validation"
)

// HistoryWindow is how far back location history reaches
const HistoryWindow = 24 * time.Hour

// alertTimeout bounds how long a status post waits on emergency notifications
const alertTimeout = 10 * time.Second

// ErrNotFamilyMember is returned when the target user is not one of the caller's family members
var ErrNotFamilyMember = errors.New("not a family member")

// EmergencyNotifier is told about every emergency status update
type EmergencyNotifier interface {
	NotifyEmergency(ctx context.Context, user *models.User, status *models.StatusUpdate) error
}

// SafetyService implements status, location, family and check-in operations
type SafetyService struct {
	store    repository.SafetyStore
	notifier EmergencyNotifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewSafetyService creates a safety service. notifier may be nil.
func NewSafetyService(store repository.SafetyStore, notifier EmergencyNotifier, logger *zap.Logger) *SafetyService {
	return &SafetyService{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// UpdateStatus records a status update for the caller. Emergencies are
// passed to the notifier; notification failures are logged, not returned.
func (s *SafetyService) UpdateStatus(ctx context.Context, user *models.User, input validation.StatusInput) (*models.StatusUpdate, error) {
	status, err := s.store.CreateStatusUpdate(ctx, models.NewStatusUpdate{
		UserID:       user.ID,
		Status:       input.Status,
		BatteryLevel: input.BatteryLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create status update: %w", err)
	}

	if status.IsEmergency() && s.notifier != nil {
		alertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
		defer cancel()
		if err := s.notifier.NotifyEmergency(alertCtx, user, status); err != nil {
			s.logger.Error("emergency notification failed", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}

	return status, nil
}

// GetStatus returns the caller's latest status
func (s *SafetyService) GetStatus(ctx context.Context, userID int64) (*models.StatusUpdate, error) {
	return s.store.GetLatestStatus(ctx, userID)
}

// ShareLocation records a location for the caller
func (s *SafetyService) ShareLocation(ctx context.Context, userID int64, input validation.LocationInput) (*models.Location, error) {
	location, err := s.store.CreateLocation(ctx, models.NewLocation{
		UserID:    userID,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Address:   input.Address,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}
	return location, nil
}

// GetLocation returns the caller's current location
func (s *SafetyService) GetLocation(ctx context.Context, userID int64) (*models.Location, error) {
	return s.store.GetLocation(ctx, userID)
}

// GetLocationHistory returns the caller's locations from the last 24 hours, newest first
func (s *SafetyService) GetLocationHistory(ctx context.Context, userID int64) ([]models.Location, error) {
	now := s.now()
	return s.store.GetLocationsInTimeRange(ctx, userID, now.Add(-HistoryWindow), now)
}

// GetFamily returns the caller's family members
func (s *SafetyService) GetFamily(ctx context.Context, userID int64) ([]models.FamilyMember, error) {
	return s.store.GetFamilyMembers(ctx, userID)
}

// GetFamilyMemberLocation returns a family member's current location
func (s *SafetyService) GetFamilyMemberLocation(ctx context.Context, userID, memberID int64) (*models.Location, error) {
	if _, err := s.familyMember(ctx, userID, memberID); err != nil {
		return nil, err
	}
	return s.store.GetLocation(ctx, memberID)
}

// CheckIn records a check-in for the caller
func (s *SafetyService) CheckIn(ctx context.Context, userID int64, input validation.CheckInInput) (*models.CheckIn, error) {
	checkIn, err := s.store.CreateCheckIn(ctx, models.NewCheckIn{
		UserID:  userID,
		Message: input.Message,
		Mood:    input.Mood,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create check-in: %w", err)
	}
	return checkIn, nil
}

// GetCheckIns returns the caller's most recent check-ins
func (s *SafetyService) GetCheckIns(ctx context.Context, userID int64, limit int) ([]models.CheckIn, error) {
	return s.store.GetRecentCheckIns(ctx, userID, limit)
}

// GetFamilyMemberCheckIns returns a family member's most recent check-ins
func (s *SafetyService) GetFamilyMemberCheckIns(ctx context.Context, userID, memberID int64, limit int) ([]models.CheckIn, error) {
	if _, err := s.familyMember(ctx, userID, memberID); err != nil {
		return nil, err
	}
	return s.store.GetRecentCheckIns(ctx, memberID, limit)
}

// GetFamilyCheckIns pairs each family member with their latest check-in.
// Members who never checked in are left out. Newest check-in first.
func (s *SafetyService) GetFamilyCheckIns(ctx context.Context, userID int64) ([]models.FamilyCheckIn, error) {
	members, err := s.store.GetFamilyMembers(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]models.FamilyCheckIn, 0, len(members))
	for _, member := range members {
		latest, err := s.store.GetRecentCheckIns(ctx, member.ID, 1)
		if err != nil {
			return nil, err
		}
		if len(latest) == 0 {
			continue
		}
		result = append(result, models.FamilyCheckIn{
			MemberID:     member.ID,
			MemberName:   member.Name,
			Relationship: member.Relationship,
			CheckIn:      latest[0],
			LastSeen:     member.LastSeen,
		})
	}

	slices.SortStableFunc(result, func(a, b models.FamilyCheckIn) int {
		if c := b.CheckIn.Timestamp.Compare(a.CheckIn.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.CheckIn.ID, a.CheckIn.ID)
	})
	return result, nil
}

// familyMember returns memberID as seen from userID's connections, or ErrNotFamilyMember
func (s *SafetyService) familyMember(ctx context.Context, userID, memberID int64) (*models.FamilyMember, error) {
	members, err := s.store.GetFamilyMembers(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].ID == memberID {
			return &members[i], nil
		}
	}
	return nil, ErrNotFamilyMember
}
