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
	"fermentum/models"
)

type batchIngredientResponse struct {
	ID           uint      `json:"id"`
	BatchID      uint      `json:"batch_id"`
	IngredientID uint      `json:"ingredient_id"`
	Name         string    `json:"name"`
	Amount       float64   `json:"amount"`
	Unit         string    `json:"unit"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type batchIngredientCreateRequest struct {
	BatchID        uint    `json:"batch_id" validate:"required"`
	IngredientID   *uint   `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name"`
	Description    string  `json:"description"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Unit           string  `json:"unit"`
}

type batchIngredientUpdateRequest struct {
	Amount *float64 `json:"amount" validate:"omitempty,gt=0"`
	Unit   string   `json:"unit"`
}

// BatchIngredientResource handles the additions recorded against a batch.
func BatchIngredientResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "batch ingredient request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "batch ingredient request without authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/app/api/batch-ingredients")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listBatchIngredients(w, r, userID)
		case http.MethodPost:
			createBatchIngredient(w, r, userID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	idValue, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		applog.Debug(r.Context(), "invalid batch ingredient identifier", "identifier", path, "error", err)
		http.NotFound(w, r)
		return
	}
	additionID := uint(idValue)

	switch r.Method {
	case http.MethodPut:
		updateBatchIngredient(w, r, additionID, userID)
	case http.MethodDelete:
		deleteBatchIngredient(w, r, additionID, userID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listBatchIngredients(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()

	batchParam := strings.TrimSpace(r.URL.Query().Get("batch_id"))
	batchID, err := strconv.ParseUint(batchParam, 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "batch_id query parameter is required")
		return
	}

	if _, err := loadOwnedBatch(ctx, database, uint(batchID), userID, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "batch ingredient list denied: batch not found or not owned", "batch", batchID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load batch for ingredient list", "error", err, "batch", batchID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load batch ingredients")
		return
	}

	var additions []models.BatchIngredient
	if err := database.WithContext(ctx).
		Preload("Ingredient").
		Where("batch_id = ?", uint(batchID)).
		Order("id asc").
		Find(&additions).Error; err != nil {
		applog.Error(ctx, "failed to list batch ingredients", "error", err, "batch", batchID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load batch ingredients")
		return
	}

	responses := make([]batchIngredientResponse, 0, len(additions))
	for _, addition := range additions {
		responses = append(responses, projectBatchIngredient(addition))
	}
	writeJSON(w, http.StatusOK, responses)
}

func createBatchIngredient(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()

	var payload batchIngredientCreateRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		applog.Debug(ctx, "invalid batch ingredient payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	// validate the raw unit first: NormalizeUnit folds unknown values to grams
	trimmedUnit := strings.ToLower(strings.TrimSpace(payload.Unit))
	if trimmedUnit != "" && !models.ValidUnit(trimmedUnit) {
		writeJSONError(w, http.StatusBadRequest, "unit must be one of kg, g, l or ml")
		return
	}
	unit := models.NormalizeUnit(trimmedUnit)

	batch, err := loadOwnedBatch(ctx, database, payload.BatchID, userID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "batch ingredient create denied: batch not found or not owned", "batch", payload.BatchID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load batch for ingredient create", "error", err, "batch", payload.BatchID)
		writeJSONError(w, http.StatusInternalServerError, "unable to record ingredient")
		return
	}

	if batch.IsFinished {
		writeJSONError(w, http.StatusConflict, "finished batches can no longer be edited")
		return
	}

	var addition models.BatchIngredient
	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ingredient, err := resolveIngredient(ctx, tx, payload)
		if err != nil {
			return err
		}

		addition = models.BatchIngredient{
			BatchID:      batch.ID,
			IngredientID: ingredient.ID,
			Ingredient:   ingredient,
			Amount:       payload.Amount,
			Unit:         unit,
		}
		return tx.Create(&addition).Error
	})
	if err != nil {
		if errors.Is(err, errIngredientUnresolved) {
			writeJSONError(w, http.StatusBadRequest, "either ingredient_id or ingredient_name is required")
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusBadRequest, "ingredient not found")
			return
		}
		applog.Error(ctx, "failed to record batch ingredient", "error", err, "batch", payload.BatchID)
		writeJSONError(w, http.StatusInternalServerError, "unable to record ingredient")
		return
	}

	writeJSON(w, http.StatusCreated, projectBatchIngredient(addition))
}

var errIngredientUnresolved = errors.New("no ingredient reference provided")

// resolveIngredient picks the referenced catalog row, creating one from
// ingredient_name when no id was supplied.
func resolveIngredient(ctx context.Context, tx *gorm.DB, payload batchIngredientCreateRequest) (*models.Ingredient, error) {
	if payload.IngredientID != nil && *payload.IngredientID > 0 {
		var ingredient models.Ingredient
		if err := tx.WithContext(ctx).First(&ingredient, *payload.IngredientID).Error; err != nil {
			return nil, err
		}
		return &ingredient, nil
	}

	if strings.TrimSpace(payload.IngredientName) == "" {
		return nil, errIngredientUnresolved
	}

	ingredient, _, err := findOrCreateIngredient(ctx, tx, payload.IngredientName, payload.Description)
	return ingredient, err
}

func updateBatchIngredient(w http.ResponseWriter, r *http.Request, additionID, userID uint) {
	ctx := r.Context()
	addition, err := loadOwnedBatchIngredient(ctx, additionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "batch ingredient update denied", "id", additionID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load batch ingredient for update", "error", err, "id", additionID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return
	}

	var payload batchIngredientUpdateRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		applog.Debug(ctx, "invalid batch ingredient update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	updates := map[string]any{}
	if payload.Amount != nil {
		updates["amount"] = *payload.Amount
	}
	if trimmedUnit := strings.ToLower(strings.TrimSpace(payload.Unit)); trimmedUnit != "" {
		if !models.ValidUnit(trimmedUnit) {
			writeJSONError(w, http.StatusBadRequest, "unit must be one of kg, g, l or ml")
			return
		}
		updates["unit"] = trimmedUnit
	}

	if len(updates) > 0 {
		if err := database.WithContext(ctx).Model(addition).Updates(updates).Error; err != nil {
			applog.Error(ctx, "failed to update batch ingredient", "error", err, "id", additionID)
			writeJSONError(w, http.StatusInternalServerError, "unable to update ingredient")
			return
		}
	}

	reloaded, err := loadOwnedBatchIngredient(ctx, additionID, userID)
	if err != nil {
		applog.Error(ctx, "failed to reload batch ingredient after update", "error", err, "id", additionID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load updated ingredient")
		return
	}

	writeJSON(w, http.StatusOK, projectBatchIngredient(*reloaded))
}

func deleteBatchIngredient(w http.ResponseWriter, r *http.Request, additionID, userID uint) {
	ctx := r.Context()
	addition, err := loadOwnedBatchIngredient(ctx, additionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "batch ingredient delete denied", "id", additionID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load batch ingredient for delete", "error", err, "id", additionID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return
	}

	if err := database.WithContext(ctx).Delete(addition).Error; err != nil {
		applog.Error(ctx, "failed to delete batch ingredient", "error", err, "id", additionID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete ingredient")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// loadOwnedBatchIngredient resolves an addition and checks the parent batch
// belongs to the requesting user. Anything else reads as not found.
func loadOwnedBatchIngredient(ctx context.Context, additionID, userID uint) (*models.BatchIngredient, error) {
	var addition models.BatchIngredient
	if err := database.WithContext(ctx).Preload("Ingredient").First(&addition, additionID).Error; err != nil {
		return nil, err
	}
	if _, err := loadOwnedBatch(ctx, database, addition.BatchID, userID, false); err != nil {
		return nil, err
	}
	return &addition, nil
}

func projectBatchIngredient(addition models.BatchIngredient) batchIngredientResponse {
	name := ""
	if addition.Ingredient != nil {
		name = addition.Ingredient.Name
	}
	return batchIngredientResponse{
		ID:           addition.ID,
		BatchID:      addition.BatchID,
		IngredientID: addition.IngredientID,
		Name:         name,
		Amount:       addition.Amount,
		Unit:         addition.Unit,
		CreatedAt:    addition.CreatedAt,
		UpdatedAt:    addition.UpdatedAt,
	}
}
