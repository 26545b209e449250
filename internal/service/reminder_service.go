package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"maintenance-reminder/internal/model"
	"maintenance-reminder/internal/notify"
	"maintenance-reminder/internal/repository"
)

// pastDueGrace is how far into the future a trigger is pushed when the
// derived instant has already passed, so a past-due or just-completed task
// still fires once instead of never.
const pastDueGrace = 5 * time.Second

// ReminderService maps a task's due date to a wall-clock trigger and keeps
// the one-shot trigger per task in sync with it. Trigger registrations do not
// survive restarts; RearmAll restores them from the store.
type ReminderService struct {
	taskRepo     *repository.TaskRepository
	settingsRepo *repository.SettingsRepository
	registry     notify.TriggerRegistry
	loc          *time.Location
	now          func() time.Time
}

func NewReminderService(
	taskRepo *repository.TaskRepository,
	settingsRepo *repository.SettingsRepository,
	registry notify.TriggerRegistry,
	loc *time.Location,
) *ReminderService {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderService{
		taskRepo:     taskRepo,
		settingsRepo: settingsRepo,
		registry:     registry,
		loc:          loc,
		now:          time.Now,
	}
}

// TriggerInstant combines the calendar date of the task's due date with the
// configured notification hour, minute zero, in the service's location.
func (s *ReminderService) TriggerInstant(task *model.Task, settings model.AppSettings) time.Time {
	due := task.NextDueDate.In(s.loc)
	year, month, day := due.Date()
	return time.Date(year, month, day, settings.NotificationHour, 0, 0, 0, s.loc)
}

// Arm registers the task's reminder trigger, replacing any existing one for
// the same task id. Returns false when nothing was armed; scheduling failures
// are reported, never raised, because the task state is already committed.
func (s *ReminderService) Arm(ctx context.Context, task *model.Task) bool {
	if task == nil || task.ID == 0 {
		log.Printf("reminder: arm skipped, task missing an id")
		return false
	}
	if task.DeviceID == 0 {
		log.Printf("reminder: arm skipped, task %d has no device", task.ID)
		return false
	}
	if task.NextDueDate.IsZero() {
		log.Printf("reminder: arm skipped, task %d has no due date", task.ID)
		return false
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		log.Printf("reminder: settings unavailable, using defaults: %v", err)
	}

	trigger := s.TriggerInstant(task, settings)
	now := s.now()
	if !trigger.After(now) {
		trigger = now.Add(pastDueGrace)
	}

	payload := notify.Payload{TaskID: task.ID, DeviceID: task.DeviceID, Title: task.Title}
	if err := s.registry.Register(task.ID, trigger, payload); err != nil {
		log.Printf("reminder: register failed for task %d: %v", task.ID, err)
		return false
	}
	return true
}

// Cancel unarms the task's reminder. A no-op when none is armed.
func (s *ReminderService) Cancel(taskID uint) {
	s.registry.Cancel(taskID)
}

// IsArmed reports whether a trigger is registered for the task.
func (s *ReminderService) IsArmed(taskID uint) bool {
	return s.registry.Exists(taskID)
}

// RearmAll arms reminders for every active task. Called once at startup and
// whenever the notification hour changes.
func (s *ReminderService) RearmAll(ctx context.Context) error {
	tasks, err := s.taskRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("rearm reminders: %w", err)
	}
	armed := 0
	for i := range tasks {
		if s.Arm(ctx, &tasks[i]) {
			armed++
		}
	}
	log.Printf("reminder: armed %d of %d active tasks", armed, len(tasks))
	return nil
}
