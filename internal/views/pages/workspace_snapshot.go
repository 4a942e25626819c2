package pages

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"fermentum/models"
)

// SharedListing pairs a shared product with the aggregates the board renders.
type SharedListing struct {
	Shared     models.SharedProduct
	LikesCount int
	HasLiked   bool
}

// WorkspaceSnapshot aggregates relational data required to render the cellar workspace.
type WorkspaceSnapshot struct {
	Batches    []models.Batch
	Products   []models.FinishedProduct
	SharedTop  []SharedListing
	SharedRest []SharedListing
	Theme      string
	UserID     uint
}

// NewWorkspaceSnapshot normalises and sorts the data required by the workspace views.
func NewWorkspaceSnapshot(batches []models.Batch, products []models.FinishedProduct, sharedTop, sharedRest []SharedListing, theme string, userID uint) WorkspaceSnapshot {
	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].BatchNumber < batches[j].BatchNumber
	})

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].SerialNumber < products[j].SerialNumber
	})

	return WorkspaceSnapshot{
		Batches:    batches,
		Products:   products,
		SharedTop:  sharedTop,
		SharedRest: sharedRest,
		Theme:      theme,
		UserID:     userID,
	}
}

// EmptyWorkspaceSnapshot returns a zero-value snapshot to simplify call sites when no data is available.
func EmptyWorkspaceSnapshot() WorkspaceSnapshot {
	return WorkspaceSnapshot{Theme: models.DefaultTheme}
}

// ParseUint converts the string to a uint, returning zero for anything unparseable.
func ParseUint(value string) uint {
	parsed, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return uint(parsed)
}

// FindBatch returns the batch with the given id, or nil when absent.
func FindBatch(batches []models.Batch, id uint) *models.Batch {
	for i := range batches {
		if batches[i].ID == id {
			return &batches[i]
		}
	}
	return nil
}

// BatchStatusLabel renders the lifecycle state of a batch for display.
func BatchStatusLabel(batch models.Batch) string {
	if batch.IsFinished {
		return "Finished"
	}
	return "Active"
}

// FormatGravity renders a specific gravity reading with brewing precision.
func FormatGravity(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}

// FormatOptionalGravity renders an optional gravity reading, dash when unset.
func FormatOptionalGravity(value *float64) string {
	if value == nil {
		return "—"
	}
	return FormatGravity(*value)
}

// FormatABV renders an estimated alcohol content, dash until it is computable.
func FormatABV(value *float64) string {
	if value == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f%%", *value)
}

// FormatDate renders the supplied time using a cellar-log friendly layout.
func FormatDate(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.Format("02 Jan 2006")
}

// IngredientLine renders one batch addition, e.g. "6 kg Wildflower Honey".
func IngredientLine(addition models.BatchIngredient) string {
	name := "Unknown ingredient"
	if addition.Ingredient != nil && addition.Ingredient.Name != "" {
		name = addition.Ingredient.Name
	}
	amount := strconv.FormatFloat(addition.Amount, 'f', -1, 64)
	return fmt.Sprintf("%s %s %s", amount, addition.Unit, name)
}
