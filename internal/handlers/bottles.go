package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	applog "fermentum/internal/log"
	"fermentum/internal/views/pages"
	"fermentum/models"
)

type bottleResponse struct {
	ID           uint      `json:"id"`
	ProductID    uint      `json:"product_id"`
	BottleNumber string    `json:"bottle_number"`
	Volume       float64   `json:"volume"`
	DateBottled  string    `json:"date_bottled"`
	PublicURL    string    `json:"public_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BottleResource handles direct interactions with individual bottles.
func BottleResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "bottle request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "bottle request without authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/app/api/bottles")
	path = strings.Trim(path, "/")
	if path == "" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	idValue, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		applog.Debug(r.Context(), "invalid bottle identifier", "identifier", path, "error", err)
		http.NotFound(w, r)
		return
	}
	bottleID := uint(idValue)

	switch r.Method {
	case http.MethodGet:
		showBottle(w, r, bottleID, userID)
	case http.MethodDelete:
		deleteBottle(w, r, bottleID, userID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func showBottle(w http.ResponseWriter, r *http.Request, bottleID, userID uint) {
	ctx := r.Context()
	bottle, err := loadOwnedBottle(ctx, bottleID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "bottle not found or not owned", "id", bottleID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load bottle", "error", err, "id", bottleID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load bottle")
		return
	}

	writeJSON(w, http.StatusOK, projectBottle(*bottle))
}

func deleteBottle(w http.ResponseWriter, r *http.Request, bottleID, userID uint) {
	ctx := r.Context()
	bottle, err := loadOwnedBottle(ctx, bottleID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "bottle delete denied", "id", bottleID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load bottle for delete", "error", err, "id", bottleID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load bottle")
		return
	}

	if err := database.WithContext(ctx).Delete(bottle).Error; err != nil {
		applog.Error(ctx, "failed to delete bottle", "error", err, "id", bottleID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete bottle")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PublicBottlePage serves the unauthenticated provenance page a bottle's QR
// code points at. Bottles are addressed by their opaque token, never by row id.
func PublicBottlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	token := strings.Trim(strings.TrimPrefix(r.URL.Path, "/p/bottles"), "/")
	if token == "" || strings.Contains(token, "/") {
		http.NotFound(w, r)
		return
	}

	var bottle models.Bottle
	if err := database.WithContext(ctx).Where("public_token = ?", token).First(&bottle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "public bottle not found", "token", token)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load public bottle", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var product models.FinishedProduct
	if err := database.WithContext(ctx).First(&product, bottle.FinishedProductID).Error; err != nil {
		applog.Error(ctx, "failed to load product for public bottle", "error", err, "bottle", bottle.ID)
		http.NotFound(w, r)
		return
	}

	var batch models.Batch
	if err := database.WithContext(ctx).Preload("Ingredients.Ingredient").First(&batch, product.BatchID).Error; err != nil {
		applog.Error(ctx, "failed to load batch for public bottle", "error", err, "bottle", bottle.ID)
		http.NotFound(w, r)
		return
	}

	renderComponent(w, r, pages.PublicBottle(bottle, product, batch))
}

// loadOwnedBottle resolves a bottle through its product's creator.
func loadOwnedBottle(ctx context.Context, bottleID, userID uint) (*models.Bottle, error) {
	var bottle models.Bottle
	if err := database.WithContext(ctx).First(&bottle, bottleID).Error; err != nil {
		return nil, err
	}
	if _, err := loadOwnedProduct(ctx, bottle.FinishedProductID, userID, false); err != nil {
		return nil, err
	}
	return &bottle, nil
}

func publicBottleURL(bottle models.Bottle) string {
	return publicBaseURL + "/p/bottles/" + bottle.PublicToken
}

func projectBottle(bottle models.Bottle) bottleResponse {
	return bottleResponse{
		ID:           bottle.ID,
		ProductID:    bottle.FinishedProductID,
		BottleNumber: bottle.BottleNumber,
		Volume:       bottle.Volume,
		DateBottled:  bottle.DateBottled.Format(batchDateLayout),
		PublicURL:    publicBottleURL(bottle),
		CreatedAt:    bottle.CreatedAt,
		UpdatedAt:    bottle.UpdatedAt,
	}
}
