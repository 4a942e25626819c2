package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// FinishedProduct is the completed output of a batch. Exactly one product
// exists per batch, created at the moment the batch is finished. The serial
// number is generated as YYYYMM{TYPE}NNNN and never edited.
type FinishedProduct struct {
	gorm.Model
	BatchID      uint      `gorm:"uniqueIndex;not null" json:"batch_id"`
	Batch        *Batch    `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
	CreatorID    uint      `gorm:"not null" json:"creator_id"`
	Creator      *User     `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	ProductType  string    `gorm:"type:varchar(4);not null" json:"product_type"`
	SerialNumber string    `gorm:"uniqueIndex;not null" json:"serial_number"`
	StartDate    time.Time `gorm:"not null" json:"start_date"`
	FinishDate   time.Time `gorm:"not null" json:"finish_date"`
	Description  string    `gorm:"type:text" json:"description"`
	ABV          float64   `json:"abv"`
	Bottles      []Bottle  `gorm:"foreignKey:FinishedProductID" json:"bottles"`
}

// Product types a batch can be finished into.
const (
	ProductTypeWine = "WINE"
	ProductTypeMead = "MEAD"
)

// ValidProductType reports whether the value names a known product type.
func ValidProductType(value string) bool {
	switch value {
	case ProductTypeWine, ProductTypeMead:
		return true
	default:
		return false
	}
}

// NormalizeProductType uppercases and trims the value. Unknown types come back
// unchanged so callers can reject them.
func NormalizeProductType(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
