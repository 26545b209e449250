package notify

import (
	"context"
	"log"
	"time"
)

// LogNotifier is the zero-config delivery fallback: reminders land in the
// process log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, deviceName, taskTitle string, due time.Time) error {
	log.Printf("reminder: %s — %s due %s", deviceName, taskTitle, due.Format("2006-01-02"))
	return nil
}
