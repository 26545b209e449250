package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"maintenance-reminder/internal/model"
)

func TestSettingsDefaults(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSettingsService(env.settings, env.reminders)

	settings, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.NotificationPreset != model.PresetMorning || settings.NotificationHour != 9 {
		t.Fatalf("defaults = %+v, want MORNING/9", settings)
	}
}

func TestUpdatePresetFixesHour(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSettingsService(env.settings, env.reminders)
	ctx := context.Background()

	// A known preset wins even when the caller passes a stray hour.
	if err := svc.Update(ctx, model.PresetEvening, 3); err != nil {
		t.Fatalf("update: %v", err)
	}
	settings, _ := svc.Get(ctx)
	if settings.NotificationPreset != model.PresetEvening || settings.NotificationHour != 19 {
		t.Fatalf("settings = %+v, want EVENING/19", settings)
	}
}

func TestUpdateCustomHour(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSettingsService(env.settings, env.reminders)
	ctx := context.Background()

	if err := svc.Update(ctx, "CUSTOM", 7); err != nil {
		t.Fatalf("update: %v", err)
	}
	settings, _ := svc.Get(ctx)
	if settings.NotificationHour != 7 {
		t.Fatalf("hour = %d, want 7", settings.NotificationHour)
	}
}

func TestUpdateRejectsInvalidHour(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSettingsService(env.settings, env.reminders)

	if err := svc.Update(context.Background(), "CUSTOM", 24); !errors.Is(err, ErrInvalidHour) {
		t.Fatalf("expected ErrInvalidHour, got %v", err)
	}
}

func TestUpdateMovesExistingTriggersToNewHour(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSettingsService(env.settings, env.reminders)
	ctx := context.Background()

	device := env.createDevice(t, "Cellar")
	task := env.createTask(t, device.ID, "Check humidity", utcDate(2030, time.September, 1), 1, model.UnitWeeks)

	fake := newFakeRegistry()
	env.reminders.registry = fake

	if err := svc.Update(ctx, model.PresetDay, 0); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, ok := fake.armed[task.ID]
	if !ok {
		t.Fatalf("reminder not re-armed after settings change")
	}
	want := time.Date(2030, time.September, 1, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("re-armed trigger = %v, want %v", got, want)
	}
}
