package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"maintenance-reminder/internal/model"
)

// SettingsRepository manages the singleton settings row.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the persisted settings, falling back to defaults when the row
// was never written.
func (r *SettingsRepository) Get(ctx context.Context) (model.AppSettings, error) {
	var settings model.AppSettings
	err := r.db.WithContext(ctx).First(&settings, 1).Error
	switch {
	case err == nil:
		return settings, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.DefaultSettings(), nil
	default:
		return model.DefaultSettings(), fmt.Errorf("read settings: %w", err)
	}
}

func (r *SettingsRepository) Update(ctx context.Context, preset string, hour int) error {
	settings := model.AppSettings{ID: 1, NotificationPreset: preset, NotificationHour: hour}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&settings).Error; err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
