package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"maintenance-reminder/internal/model"
)

// DeviceRepository handles CRUD for devices.
type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Create(ctx context.Context, device *model.Device) error {
	if err := r.db.WithContext(ctx).Create(device).Error; err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	return nil
}

func (r *DeviceRepository) Update(ctx context.Context, device *model.Device) error {
	if err := r.db.WithContext(ctx).Save(device).Error; err != nil {
		return fmt.Errorf("update device: %w", err)
	}
	return nil
}

func (r *DeviceRepository) FindByID(ctx context.Context, id uint) (*model.Device, error) {
	var device model.Device
	if err := r.db.WithContext(ctx).First(&device, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find device: %w", err)
	}
	return &device, nil
}

func (r *DeviceRepository) ListAll(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}
