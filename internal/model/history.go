package model

import "time"

// HistoryEntry records one completed maintenance cycle. Entries are immutable
// once written; the only mutations are append and delete-by-id.
// PreviousDueDate holds the due date the task carried right before the
// completion, which is what makes a later rollback possible.
type HistoryEntry struct {
	ID                uint `gorm:"primaryKey"`
	TaskID            uint `gorm:"index"`
	DeviceID          uint `gorm:"index"`
	CompletionDate    time.Time
	CompletionComment string
	Consumables       string
	Cost              *float64
	PreviousDueDate   time.Time
	CreatedAt         time.Time
}
