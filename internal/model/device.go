package model

import "time"

// Device is a piece of equipment that owns maintenance tasks.
type Device struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	Category  string
	Notes     string
	PhotoRef  string
	CreatedAt time.Time
	UpdatedAt time.Time
	Tasks     []Task `gorm:"foreignKey:DeviceID"`
}
