package models

import (
	"math"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Batch is an in-progress brewing run owned by a single user. The batch number
// is generated on creation and never edited. A batch moves from active to
// finished exactly once, producing its FinishedProduct.
type Batch struct {
	gorm.Model
	BatchNumber    string            `gorm:"uniqueIndex;not null" json:"batch_number"`
	StartDate      time.Time         `gorm:"not null" json:"start_date"`
	StartGravity   float64           `gorm:"not null" json:"start_gravity"`
	MiddleGravity  *float64          `json:"middle_gravity,omitempty"`
	FinalGravity   *float64          `json:"final_gravity,omitempty"`
	IsFinished     bool              `gorm:"not null;default:false" json:"is_finished"`
	CreatorID      uint              `gorm:"not null" json:"creator_id"`
	Creator        *User             `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Ingredients    []BatchIngredient `gorm:"foreignKey:BatchID" json:"ingredients"`
	ProcessEntries []ProcessEntry    `gorm:"foreignKey:BatchID" json:"process_entries"`
}

// ABV estimates alcohol by volume from the gravity drop. Returns nil until the
// final gravity has been recorded.
func (b Batch) ABV() *float64 {
	if b.StartGravity == 0 || b.FinalGravity == nil {
		return nil
	}
	value := math.Round((b.StartGravity-*b.FinalGravity)*131.25*100) / 100
	return &value
}

// BatchIngredient records how much of a catalog ingredient went into a batch.
type BatchIngredient struct {
	gorm.Model
	BatchID      uint        `gorm:"not null" json:"batch_id"`
	IngredientID uint        `gorm:"not null" json:"ingredient_id"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
	Amount       float64     `gorm:"not null" json:"amount"`
	Unit         string      `gorm:"type:varchar(10);not null" json:"unit"`
}

// Measurement units accepted for batch ingredients.
const (
	UnitKilogram   = "kg"
	UnitGram       = "g"
	UnitLiter      = "l"
	UnitMilliliter = "ml"
)

// ValidUnit reports whether the value is one of the accepted measurement units.
func ValidUnit(value string) bool {
	switch value {
	case UnitKilogram, UnitGram, UnitLiter, UnitMilliliter:
		return true
	default:
		return false
	}
}

// NormalizeUnit lowercases and trims the unit, defaulting to grams when the
// value is blank or unknown.
func NormalizeUnit(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if ValidUnit(trimmed) {
		return trimmed
	}
	return UnitGram
}
