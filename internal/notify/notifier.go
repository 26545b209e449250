package notify

import (
	"context"
	"time"
)

// Payload carries only identifiers. The on-fire consumer re-reads the task
// and device from the store rather than trusting stale embedded state.
type Payload struct {
	TaskID   uint
	DeviceID uint
	Title    string
}

// Trigger is an armed one-shot reminder handed to the consumer when its
// instant arrives.
type Trigger struct {
	ID      uint
	FireAt  time.Time
	Payload Payload
}

// Notifier delivers a fired reminder to the user. Any transport works as
// long as it fires when asked; delivery failures must never touch task state.
type Notifier interface {
	Notify(ctx context.Context, deviceName, taskTitle string, due time.Time) error
}

// TriggerRegistry is the delivery-layer substrate for timed reminders:
// one-shot triggers keyed by task id, replace-on-register, cancellable,
// existence-checkable. Registrations do not survive a process restart.
type TriggerRegistry interface {
	Register(id uint, at time.Time, payload Payload) error
	Cancel(id uint)
	Exists(id uint) bool
}
