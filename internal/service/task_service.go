package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"maintenance-reminder/internal/model"
	"maintenance-reminder/internal/repository"
)

var (
	ErrTaskNotFound     = errors.New("service: task not found")
	ErrDeviceNotFound   = errors.New("service: device not found")
	ErrInvalidTaskState = errors.New("service: task is missing fields required for completion")
	ErrServiceClosed    = errors.New("service: task service closed")
)

// CompletionResult reports the outcome of a successful completion. A false
// ReminderArmed means the task and history are committed but the reminder
// could not be scheduled; the user may re-arm manually.
type CompletionResult struct {
	Task          *model.Task
	Entry         *model.HistoryEntry
	ReminderArmed bool
}

// TaskService coordinates every task mutation: the transactional completion
// and rollback protocols, due-date moves, CRUD, and the ordered cascade on
// delete. All mutating operations are funneled through one worker goroutine
// in submission order, so two operations on the same task never interleave.
type TaskService struct {
	db          *gorm.DB
	taskRepo    *repository.TaskRepository
	historyRepo *repository.HistoryRepository
	deviceRepo  *repository.DeviceRepository
	reminders   *ReminderService
	loc         *time.Location

	mu        sync.Mutex
	closed    bool
	jobs      chan func()
	done      chan struct{}
	closeOnce sync.Once
}

func NewTaskService(
	db *gorm.DB,
	taskRepo *repository.TaskRepository,
	historyRepo *repository.HistoryRepository,
	deviceRepo *repository.DeviceRepository,
	reminders *ReminderService,
	loc *time.Location,
) *TaskService {
	if loc == nil {
		loc = time.Local
	}
	s := &TaskService{
		db:          db,
		taskRepo:    taskRepo,
		historyRepo: historyRepo,
		deviceRepo:  deviceRepo,
		reminders:   reminders,
		loc:         loc,
		jobs:        make(chan func(), 16),
		done:        make(chan struct{}),
	}
	go s.worker()
	return s
}

func (s *TaskService) worker() {
	defer close(s.done)
	for job := range s.jobs {
		job()
	}
}

// Close drains the mutation queue and stops the worker. Mutations submitted
// afterwards fail with ErrServiceClosed.
func (s *TaskService) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.jobs)
		<-s.done
	})
}

// run executes job on the single mutation worker and waits for its result.
// Channel FIFO order is the serialization guarantee: a completion and a
// subsequent rollback on the same task are never reordered. The send happens
// under the mutex so Close cannot shut the channel out from under it.
func (s *TaskService) run(job func() error) error {
	errCh := make(chan error, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServiceClosed
	}
	s.jobs <- func() { errCh <- job() }
	s.mu.Unlock()
	return <-errCh
}

// CompleteTask marks the task's current due cycle as done: one history entry
// is appended and the due date advances, both inside one transaction. The new
// due date is anchored to the previous due date, not to when the user acted;
// the completion instant is only the fallback base for tasks persisted
// without one.
func (s *TaskService) CompleteTask(ctx context.Context, taskID uint, completedAt time.Time, comment, consumables string, cost *float64) (*CompletionResult, error) {
	var result *CompletionResult
	err := s.run(func() error {
		task, err := s.taskRepo.FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return ErrTaskNotFound
		}
		if task.ID == 0 || task.DeviceID == 0 || task.IntervalValue <= 0 {
			return fmt.Errorf("%w: id=%d device=%d interval=%d",
				ErrInvalidTaskState, task.ID, task.DeviceID, task.IntervalValue)
		}

		base := task.NextDueDate
		if base.IsZero() {
			base = completedAt
		}

		entry := &model.HistoryEntry{
			TaskID:            task.ID,
			DeviceID:          task.DeviceID,
			CompletionDate:    completedAt,
			CompletionComment: comment,
			Consumables:       consumables,
			Cost:              cost,
			PreviousDueDate:   base,
		}
		newDue := model.NextDue(base.In(s.loc), task.IntervalValue, task.IntervalUnit)

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := repository.NewHistoryRepository(tx).Append(ctx, entry); err != nil {
				return err
			}
			return repository.NewTaskRepository(tx).UpdateNextDueDate(ctx, task.ID, newDue)
		})
		if err != nil {
			return fmt.Errorf("complete task %d: %w", task.ID, err)
		}

		task.NextDueDate = newDue
		armed := s.reminders.Arm(ctx, task)
		result = &CompletionResult{Task: task, Entry: entry, ReminderArmed: armed}
		return nil
	})
	return result, err
}

// RollbackLastCompletion undoes the single most recent completion: the entry
// is removed and the due date restored to what it was before. Returns false
// with a nil error when there is nothing to undo.
func (s *TaskService) RollbackLastCompletion(ctx context.Context, taskID uint) (bool, error) {
	rolledBack := false
	err := s.run(func() error {
		task, err := s.taskRepo.FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		last, err := s.historyRepo.MostRecentForTask(ctx, taskID)
		if err != nil {
			return err
		}
		if task == nil || last == nil {
			return nil
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := repository.NewHistoryRepository(tx).DeleteByID(ctx, last.ID); err != nil {
				return err
			}
			return repository.NewTaskRepository(tx).UpdateNextDueDate(ctx, task.ID, last.PreviousDueDate)
		})
		if err != nil {
			return fmt.Errorf("rollback task %d: %w", taskID, err)
		}

		task.NextDueDate = last.PreviousDueDate
		s.reminders.Arm(ctx, task)
		rolledBack = true
		return nil
	})
	return rolledBack, err
}

// MoveDueDate sets a new due date without touching any other field and
// re-arms the reminder.
func (s *TaskService) MoveDueDate(ctx context.Context, taskID uint, newDue time.Time) (*model.Task, error) {
	var moved *model.Task
	err := s.run(func() error {
		if newDue.IsZero() {
			return model.ErrDueDateRequired
		}
		task, err := s.taskRepo.FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return ErrTaskNotFound
		}
		if err := s.taskRepo.UpdateNextDueDate(ctx, taskID, newDue); err != nil {
			return err
		}
		task.NextDueDate = newDue
		s.reminders.Arm(ctx, task)
		moved = task
		return nil
	})
	return moved, err
}

// CreateTask validates and persists a new task, then arms its reminder.
func (s *TaskService) CreateTask(ctx context.Context, task *model.Task) error {
	return s.run(func() error {
		if task.Priority == "" {
			task.Priority = model.PriorityMedium
		}
		if err := task.Validate(); err != nil {
			return err
		}
		device, err := s.deviceRepo.FindByID(ctx, task.DeviceID)
		if err != nil {
			return err
		}
		if device == nil {
			return ErrDeviceNotFound
		}
		if err := s.taskRepo.Create(ctx, task); err != nil {
			return err
		}
		if task.IsActive {
			s.reminders.Arm(ctx, task)
		}
		return nil
	})
}

// UpdateTask replaces the task row by id and re-arms or cancels the reminder
// depending on the task's active flag.
func (s *TaskService) UpdateTask(ctx context.Context, task *model.Task) error {
	return s.run(func() error {
		if err := task.Validate(); err != nil {
			return err
		}
		existing, err := s.taskRepo.FindByID(ctx, task.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrTaskNotFound
		}
		if task.DeviceID != existing.DeviceID {
			// The owning device is immutable once the task exists.
			task.DeviceID = existing.DeviceID
		}
		if err := s.taskRepo.Update(ctx, task); err != nil {
			return err
		}
		if task.IsActive {
			s.reminders.Arm(ctx, task)
		} else {
			s.reminders.Cancel(task.ID)
		}
		return nil
	})
}

// DeleteTask cancels the task's reminder, then removes the task and its
// history in one transaction. The reminder goes first so a trigger can never
// fire for a task that no longer exists.
func (s *TaskService) DeleteTask(ctx context.Context, taskID uint) error {
	return s.run(func() error {
		s.reminders.Cancel(taskID)
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("task_id = ?", taskID).Delete(&model.HistoryEntry{}).Error; err != nil {
				return err
			}
			return tx.Delete(&model.Task{}, taskID).Error
		})
		if err != nil {
			return fmt.Errorf("delete task %d: %w", taskID, err)
		}
		return nil
	})
}

// DeleteDevice removes a device with everything it owns. The cascade is
// explicit and ordered: cancel every reminder, then delete bottom-up inside
// one transaction (history, tasks, device).
func (s *TaskService) DeleteDevice(ctx context.Context, deviceID uint) error {
	return s.run(func() error {
		tasks, err := s.taskRepo.ListByDevice(ctx, deviceID)
		if err != nil {
			return err
		}
		for _, task := range tasks {
			s.reminders.Cancel(task.ID)
		}
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("device_id = ?", deviceID).Delete(&model.HistoryEntry{}).Error; err != nil {
				return err
			}
			if err := tx.Where("device_id = ?", deviceID).Delete(&model.Task{}).Error; err != nil {
				return err
			}
			return tx.Delete(&model.Device{}, deviceID).Error
		})
		if err != nil {
			return fmt.Errorf("delete device %d: %w", deviceID, err)
		}
		return nil
	})
}

// DeleteHistoryEntry removes a single history record by explicit user action.
func (s *TaskService) DeleteHistoryEntry(ctx context.Context, entryID uint) error {
	return s.run(func() error {
		return s.historyRepo.DeleteByID(ctx, entryID)
	})
}

// GetTask loads one task, nil when missing.
func (s *TaskService) GetTask(ctx context.Context, taskID uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, taskID)
}

// ListTasksForDevice returns the device's tasks ordered soonest-due first.
func (s *TaskService) ListTasksForDevice(ctx context.Context, deviceID uint) ([]model.Task, error) {
	return s.taskRepo.ListByDevice(ctx, deviceID)
}

// NearestDue returns the task due soonest across all devices, nil when no
// active task exists.
func (s *TaskService) NearestDue(ctx context.Context) (*repository.TaskWithDevice, error) {
	return s.taskRepo.NearestDue(ctx, time.Now().In(s.loc))
}

// HistoryForDevice lists the device's completion log, newest first.
func (s *TaskService) HistoryForDevice(ctx context.Context, deviceID uint) ([]repository.HistoryWithNames, error) {
	return s.historyRepo.ListByDevice(ctx, deviceID)
}

// History lists the whole completion log, newest first.
func (s *TaskService) History(ctx context.Context) ([]repository.HistoryWithNames, error) {
	return s.historyRepo.ListAll(ctx)
}

// IsReminderArmed reports whether the task currently has an armed trigger.
func (s *TaskService) IsReminderArmed(taskID uint) bool {
	return s.reminders.IsArmed(taskID)
}

// RearmReminder is the manual retry for a reminder that failed to schedule
// after its task state was already saved.
func (s *TaskService) RearmReminder(ctx context.Context, taskID uint) (bool, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, ErrTaskNotFound
	}
	return s.reminders.Arm(ctx, task), nil
}
