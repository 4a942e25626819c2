package models

import (
	"strings"

	"gorm.io/gorm"
)

// User represents an application account that can authenticate with the platform.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Name         string
	Theme        string `gorm:"type:varchar(32);default:cellar"`
}

// Workspace themes selectable from the preferences panel.
const (
	ThemeCellar       = "cellar"
	ThemeCopperKettle = "copper_kettle"
	ThemeParchment    = "parchment"
)

// DefaultTheme is applied to accounts that never picked a theme.
const DefaultTheme = ThemeCellar

// ValidTheme reports whether the value names a known workspace theme.
func ValidTheme(value string) bool {
	switch value {
	case ThemeCellar, ThemeCopperKettle, ThemeParchment:
		return true
	default:
		return false
	}
}

// NormalizeTheme trims the value and falls back to the default theme when the
// value is not a known theme key.
func NormalizeTheme(value string) string {
	trimmed := strings.TrimSpace(value)
	if ValidTheme(trimmed) {
		return trimmed
	}
	return DefaultTheme
}
