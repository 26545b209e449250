package model

import "time"

// IntervalUnit is the calendar unit a task's recurrence interval is counted in.
type IntervalUnit string

const (
	UnitDays   IntervalUnit = "DAYS"
	UnitWeeks  IntervalUnit = "WEEKS"
	UnitMonths IntervalUnit = "MONTHS"
	UnitYears  IntervalUnit = "YEARS"
)

func (u IntervalUnit) IsValid() bool {
	switch u {
	case UnitDays, UnitWeeks, UnitMonths, UnitYears:
		return true
	default:
		return false
	}
}

// NextDue adds value units of unit to the calendar date of base and returns
// midnight of the resulting date in base's location. Month and year steps use
// calendar arithmetic: the day-of-month is kept where the target month
// supports it and falls back to the last valid day otherwise (Jan 31 plus one
// month is Feb 29 in a leap year, Feb 28 otherwise).
//
// Corrupt persisted data must not break scheduling, so a non-positive value is
// treated as 1 and an unrecognized unit as DAYS.
func NextDue(base time.Time, value int64, unit IntervalUnit) time.Time {
	if value <= 0 {
		value = 1
	}
	year, month, day := base.Date()
	loc := base.Location()

	switch unit {
	case UnitWeeks:
		return time.Date(year, month, day+int(7*value), 0, 0, 0, 0, loc)
	case UnitMonths:
		return addMonths(year, month, day, int(value), loc)
	case UnitYears:
		return addMonths(year, month, day, int(value)*12, loc)
	default:
		return time.Date(year, month, day+int(value), 0, 0, 0, 0, loc)
	}
}

func addMonths(year int, month time.Month, day, months int, loc *time.Location) time.Time {
	total := int(month) - 1 + months
	y := year + total/12
	m := time.Month(total%12 + 1)
	if last := daysInMonth(m, y); day > last {
		day = last
	}
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

func daysInMonth(month time.Month, year int) int {
	// Move to next month, roll back a day.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	firstOfNextMonth := firstOfMonth.AddDate(0, 1, 0)
	lastOfMonth := firstOfNextMonth.AddDate(0, 0, -1)
	return lastOfMonth.Day()
}
