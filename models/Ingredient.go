package models

import (
	"gorm.io/gorm"
)

// Ingredient is an entry in the shared ingredient catalog. Batches reference
// catalog entries through BatchIngredient rows that carry the amount and unit.
type Ingredient struct {
	gorm.Model
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}
