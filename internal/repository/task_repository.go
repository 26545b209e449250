package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"maintenance-reminder/internal/model"
)

// TaskRepository handles CRUD for maintenance tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update replaces the whole row by id.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// UpdateNextDueDate is a narrow single-column write used by the date-move and
// rollback paths so other fields stay untouched.
func (r *TaskRepository) UpdateNextDueDate(ctx context.Context, taskID uint, due time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", taskID).
		Update("next_due_date", due).Error; err != nil {
		return fmt.Errorf("update next due date: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepository) ListByDevice(ctx context.Context, deviceID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).
		Order("next_due_date ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) ListActive(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// TaskWithDevice is a task joined with its device name plus the most recent
// completion date, for the at-a-glance summary.
type TaskWithDevice struct {
	model.Task
	DeviceName     string
	LastCompletion *time.Time
}

func (r *TaskRepository) listActiveWithDevice(ctx context.Context) ([]TaskWithDevice, error) {
	var rows []TaskWithDevice
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("tasks.*, devices.name AS device_name").
		Joins("JOIN devices ON devices.id = tasks.device_id").
		Where("tasks.is_active = ?", true).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list active tasks with device: %w", err)
	}
	return rows, nil
}

// lastCompletionFor loads the chosen task's most recent completion date with
// a typed query. An aggregate column in the join would come back without a
// declared type and the sqlite driver would hand it over as a bare string.
func (r *TaskRepository) lastCompletionFor(ctx context.Context, taskID uint) (*time.Time, error) {
	var entry model.HistoryEntry
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).
		Order("completion_date DESC, id DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("last completion: %w", err)
	}
	return &entry.CompletionDate, nil
}

// NearestDue picks the single task to surface on the summary screen, ranking
// active tasks by due date with ties broken by device name. An upcoming task
// (due today or later) always wins over an overdue one; when everything is
// overdue the least overdue task is surfaced, since it is the one closest to
// becoming current. Returns nil when there are no active tasks.
func (r *TaskRepository) NearestDue(ctx context.Context, now time.Time) (*TaskWithDevice, error) {
	rows, err := r.listActiveWithDevice(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}

	today := startOfDay(now)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].NextDueDate.Equal(rows[j].NextDueDate) {
			return rows[i].DeviceName < rows[j].DeviceName
		}
		return rows[i].NextDueDate.Before(rows[j].NextDueDate)
	})

	var chosen *TaskWithDevice
	for i := range rows {
		row := &rows[i]
		if !startOfDay(row.NextDueDate).Before(today) {
			chosen = row
			break
		}
		// Rows are due-ascending, so the latest overdue date has the
		// smallest overdue gap. Strict After keeps the first row of a
		// same-date group, preserving the device-name tie-break.
		if chosen == nil || row.NextDueDate.After(chosen.NextDueDate) {
			chosen = row
		}
	}
	if chosen == nil {
		return nil, nil
	}

	last, err := r.lastCompletionFor(ctx, chosen.ID)
	if err != nil {
		return nil, err
	}
	chosen.LastCompletion = last
	return chosen, nil
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
