package service

import (
	"context"
	"errors"
	"fmt"

	"maintenance-reminder/internal/model"
	"maintenance-reminder/internal/repository"
)

var ErrInvalidHour = errors.New("service: notification hour must be between 0 and 23")

// SettingsService manages the notification preset and hour. Saving new
// settings re-arms every reminder so existing triggers move to the new hour.
type SettingsService struct {
	repo      *repository.SettingsRepository
	reminders *ReminderService
}

func NewSettingsService(repo *repository.SettingsRepository, reminders *ReminderService) *SettingsService {
	return &SettingsService{repo: repo, reminders: reminders}
}

func (s *SettingsService) Get(ctx context.Context) (model.AppSettings, error) {
	return s.repo.Get(ctx)
}

// Update persists the given preset. A known preset fixes the hour; an
// unknown preset name is rejected unless the hour itself is valid, in which
// case it is stored as a custom hour.
func (s *SettingsService) Update(ctx context.Context, preset string, hour int) error {
	if presetHour, ok := model.PresetHour(preset); ok {
		hour = presetHour
	} else if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: %d", ErrInvalidHour, hour)
	}
	if err := s.repo.Update(ctx, preset, hour); err != nil {
		return err
	}
	return s.reminders.RearmAll(ctx)
}
