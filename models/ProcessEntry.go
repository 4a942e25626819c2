package models

import (
	"time"

	"gorm.io/gorm"
)

// ProcessEntry is one line of a batch's process log: what happened and when.
// The log is append-only and rendered in date order.
type ProcessEntry struct {
	gorm.Model
	BatchID     uint      `gorm:"not null" json:"batch_id"`
	Date        time.Time `gorm:"not null" json:"date"`
	Description string    `gorm:"type:text;not null" json:"description"`
}
