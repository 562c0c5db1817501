package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"familyconnect/internal/models"
	"familyconnect/internal/repository"
)

// EmergencyMailer delivers one emergency email
type EmergencyMailer interface {
	IsEnabled() bool
	SendEmergencyEmail(ctx context.Context, toEmail, toName string, alert EmergencyEmail) error
}

// AlertService notifies everyone watching a user when that user raises an emergency.
// Watchers are the owners of family connections pointing at the user.
type AlertService struct {
	store  repository.SafetyStore
	mailer EmergencyMailer
	logger *zap.Logger
}

var _ EmergencyNotifier = (*AlertService)(nil)

// NewAlertService creates an alert service
func NewAlertService(store repository.SafetyStore, mailer EmergencyMailer, logger *zap.Logger) *AlertService {
	return &AlertService{store: store, mailer: mailer, logger: logger.Named("alerts")}
}

// NotifyEmergency emails every watcher that has an address on file.
// Delivery errors are joined so one bad address does not stop the rest.
func (s *AlertService) NotifyEmergency(ctx context.Context, user *models.User, status *models.StatusUpdate) error {
	if !s.mailer.IsEnabled() {
		s.logger.Warn("emergency raised but email alerts are disabled", zap.Int64("user_id", user.ID))
		return nil
	}

	watchers, err := s.store.GetFamilyWatchers(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to find watchers: %w", err)
	}

	location, err := s.store.GetLocation(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to get location: %w", err)
	}

	var errs []error
	sent := 0
	for _, watcher := range watchers {
		if watcher.Email == nil || *watcher.Email == "" {
			continue
		}

		alert := EmergencyEmail{
			MemberName:   user.Name,
			Relationship: s.relationship(ctx, watcher.ID, user.ID),
			Status:       status,
			Location:     location,
		}
		if err := s.mailer.SendEmergencyEmail(ctx, *watcher.Email, watcher.Name, alert); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}

	s.logger.Info("emergency alerts sent",
		zap.Int64("user_id", user.ID),
		zap.Int("watchers", len(watchers)),
		zap.Int("sent", sent),
	)
	return errors.Join(errs...)
}

// relationship is how the watcher describes the user, "family member" if unknown
func (s *AlertService) relationship(ctx context.Context, watcherID, userID int64) string {
	members, err := s.store.GetFamilyMembers(ctx, watcherID)
	if err != nil {
		return "family member"
	}
	for _, m := range members {
		if m.ID == userID {
			return m.Relationship
		}
	}
	return "family member"
}
