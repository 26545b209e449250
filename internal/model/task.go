package model

import (
	"errors"
	"strings"
	"time"
)

// Priority of a maintenance task.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

var (
	ErrTitleRequired   = errors.New("model: task title is required")
	ErrDeviceRequired  = errors.New("model: task device id is required")
	ErrInvalidInterval = errors.New("model: interval value must be positive")
	ErrInvalidPriority = errors.New("model: invalid priority")
	ErrInvalidUnit     = errors.New("model: invalid interval unit")
	ErrDueDateRequired = errors.New("model: next due date is required")
)

// Task is a recurring maintenance obligation on a device. NextDueDate is the
// single authoritative "when is this due" field; it is never zero once the
// task has been persisted. Inactive tasks keep their history but are excluded
// from scheduling and due-date queries.
type Task struct {
	ID            uint `gorm:"primaryKey"`
	DeviceID      uint `gorm:"index"`
	Title         string
	IntervalValue int64
	IntervalUnit  IntervalUnit
	NextDueDate   time.Time
	Priority      Priority `gorm:"default:MEDIUM"`
	Comment       string
	Consumables   string
	Cost          *float64
	// No column default here: GORM drops zero-valued fields from the
	// INSERT when one is set, which would turn an explicit false into
	// true. Callers state the flag they want.
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the fields a task must carry before it may be persisted.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrTitleRequired
	}
	if t.DeviceID == 0 {
		return ErrDeviceRequired
	}
	if t.IntervalValue <= 0 {
		return ErrInvalidInterval
	}
	if !t.IntervalUnit.IsValid() {
		return ErrInvalidUnit
	}
	if t.Priority != "" && !t.Priority.IsValid() {
		return ErrInvalidPriority
	}
	if t.NextDueDate.IsZero() {
		return ErrDueDateRequired
	}
	return nil
}
