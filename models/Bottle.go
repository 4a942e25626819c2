package models

import (
	"time"

	"gorm.io/gorm"
)

// Bottle is a physical unit of a finished product. The bottle number is the
// product serial plus a two-digit sequence. PublicToken is an unguessable
// identifier embedded in the QR code so the provenance page can be served
// without authentication and without exposing row ids.
type Bottle struct {
	gorm.Model
	FinishedProductID uint             `gorm:"not null" json:"finished_product_id"`
	FinishedProduct   *FinishedProduct `gorm:"foreignKey:FinishedProductID" json:"finished_product,omitempty"`
	BottleNumber      string           `gorm:"uniqueIndex;not null" json:"bottle_number"`
	Volume            float64          `gorm:"not null" json:"volume"`
	DateBottled       time.Time        `gorm:"not null" json:"date_bottled"`
	PublicToken       string           `gorm:"uniqueIndex;not null;type:varchar(36)" json:"public_token"`
}
