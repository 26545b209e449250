package model

// AppSettings is the singleton settings row consulted when a reminder trigger
// instant is derived from a due date.
type AppSettings struct {
	ID                 uint `gorm:"primaryKey"`
	NotificationPreset string
	NotificationHour   int
}

const (
	PresetMorning = "MORNING"
	PresetDay     = "DAY"
	PresetEvening = "EVENING"

	DefaultPreset = PresetMorning
	DefaultHour   = 9
)

var presetHours = map[string]int{
	PresetMorning: 9,
	PresetDay:     14,
	PresetEvening: 19,
}

// PresetHour maps a named notification preset to its wall-clock hour.
func PresetHour(preset string) (int, bool) {
	hour, ok := presetHours[preset]
	return hour, ok
}

// DefaultSettings is what the planner assumes before the user ever saved
// anything.
func DefaultSettings() AppSettings {
	return AppSettings{ID: 1, NotificationPreset: DefaultPreset, NotificationHour: DefaultHour}
}
