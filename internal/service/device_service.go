package service

import (
	"context"
	"errors"
	"strings"

	"maintenance-reminder/internal/model"
	"maintenance-reminder/internal/repository"
)

var ErrDeviceNameRequired = errors.New("service: device name is required")

// DeviceService provides helpers around devices. Deletion lives on
// TaskService because it cascades through tasks and reminders.
type DeviceService struct {
	repo *repository.DeviceRepository
}

func NewDeviceService(repo *repository.DeviceRepository) *DeviceService {
	return &DeviceService{repo: repo}
}

func (s *DeviceService) Create(ctx context.Context, device *model.Device) error {
	if strings.TrimSpace(device.Name) == "" {
		return ErrDeviceNameRequired
	}
	return s.repo.Create(ctx, device)
}

func (s *DeviceService) Update(ctx context.Context, device *model.Device) error {
	if strings.TrimSpace(device.Name) == "" {
		return ErrDeviceNameRequired
	}
	return s.repo.Update(ctx, device)
}

func (s *DeviceService) Get(ctx context.Context, id uint) (*model.Device, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *DeviceService) List(ctx context.Context) ([]model.Device, error) {
	return s.repo.ListAll(ctx)
}
