package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"maintenance-reminder/internal/model"
)

// HistoryRepository is the append-only log of completion events. Entries are
// never edited, only appended and deleted by id.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, entry *model.HistoryEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}
	return nil
}

// HistoryWithNames is a history entry joined with its task title and device
// name for display queries.
type HistoryWithNames struct {
	model.HistoryEntry
	TaskTitle  string
	DeviceName string
}

func (r *HistoryRepository) ListByDevice(ctx context.Context, deviceID uint) ([]HistoryWithNames, error) {
	return r.listJoined(ctx, "history_entries.device_id = ?", deviceID)
}

func (r *HistoryRepository) ListAll(ctx context.Context) ([]HistoryWithNames, error) {
	return r.listJoined(ctx, "")
}

// MostRecentForTask returns the latest completion entry for the task, or nil
// when the task was never completed.
func (r *HistoryRepository) MostRecentForTask(ctx context.Context, taskID uint) (*model.HistoryEntry, error) {
	var entry model.HistoryEntry
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).
		Order("completion_date DESC, id DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("last history entry: %w", err)
	}
	return &entry, nil
}

func (r *HistoryRepository) DeleteByID(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.HistoryEntry{}, id).Error; err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	return nil
}

func (r *HistoryRepository) listJoined(ctx context.Context, cond string, args ...interface{}) ([]HistoryWithNames, error) {
	var entries []HistoryWithNames
	q := r.db.WithContext(ctx).Model(&model.HistoryEntry{}).
		Select("history_entries.*, tasks.title AS task_title, devices.name AS device_name").
		Joins("JOIN tasks ON tasks.id = history_entries.task_id").
		Joins("JOIN devices ON devices.id = history_entries.device_id").
		Order("history_entries.completion_date DESC")
	if cond != "" {
		q = q.Where(cond, args...)
	}
	if err := q.Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}
