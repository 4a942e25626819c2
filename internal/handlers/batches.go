package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	applog "fermentum/internal/log"
	"fermentum/models"
)

const batchDateLayout = "2006-01-02"

var (
	nowFunc = time.Now

	errBatchFinished       = errors.New("batch is already finished")
	errNoProcessEntries    = errors.New("batch has no process entries")
	errMissingFinalGravity = errors.New("final gravity is required to finish a batch")
)

type batchResponse struct {
	ID             uint                     `json:"id"`
	BatchNumber    string                   `json:"batch_number"`
	StartDate      string                   `json:"start_date"`
	StartGravity   float64                  `json:"start_gravity"`
	MiddleGravity  *float64                 `json:"middle_gravity"`
	FinalGravity   *float64                 `json:"final_gravity"`
	ABV            *float64                 `json:"abv"`
	IsFinished     bool                     `json:"is_finished"`
	Ingredients    []batchIngredientSummary `json:"ingredients"`
	ProcessEntries []processEntrySummary    `json:"process_entries"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

type batchIngredientSummary struct {
	ID           uint    `json:"id"`
	IngredientID uint    `json:"ingredient_id"`
	Name         string  `json:"name"`
	Amount       float64 `json:"amount"`
	Unit         string  `json:"unit"`
}

type processEntrySummary struct {
	ID          uint   `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type batchCreateRequest struct {
	StartDate     string   `json:"start_date"`
	StartGravity  float64  `json:"start_gravity" validate:"required,gt=0"`
	MiddleGravity *float64 `json:"middle_gravity" validate:"omitempty,gt=0"`
	FinalGravity  *float64 `json:"final_gravity" validate:"omitempty,gt=0"`
}

type batchUpdateRequest struct {
	StartDate     string   `json:"start_date"`
	StartGravity  *float64 `json:"start_gravity" validate:"omitempty,gt=0"`
	MiddleGravity *float64 `json:"middle_gravity" validate:"omitempty,gt=0"`
	FinalGravity  *float64 `json:"final_gravity" validate:"omitempty,gt=0"`
}

type batchFinishRequest struct {
	ProductType  string   `json:"product_type" validate:"required"`
	FinalGravity *float64 `json:"final_gravity" validate:"omitempty,gt=0"`
}

// BatchResource handles REST-style interactions for fermentation batches.
func BatchResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "batch request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "batch request missing authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/app/api/batches")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listBatches(w, r, userID)
		case http.MethodPost:
			createBatch(w, r, userID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")
	idValue, err := strconv.ParseUint(segments[0], 10, 64)
	if err != nil {
		applog.Debug(r.Context(), "invalid batch identifier", "identifier", segments[0], "error", err)
		http.NotFound(w, r)
		return
	}
	batchID := uint(idValue)

	if len(segments) > 1 {
		if segments[1] == "finish" && len(segments) == 2 {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			finishBatch(w, r, batchID, userID)
			return
		}
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showBatch(w, r, batchID, userID)
	case http.MethodPut:
		updateBatch(w, r, batchID, userID)
	case http.MethodDelete:
		deleteBatch(w, r, batchID, userID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listBatches(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()
	var batches []models.Batch
	if err := database.WithContext(ctx).
		Preload("Ingredients.Ingredient").
		Preload("ProcessEntries", func(db *gorm.DB) *gorm.DB { return db.Order("date asc, id asc") }).
		Where("creator_id = ?", userID).
		Order("batch_number asc").
		Find(&batches).Error; err != nil {
		applog.Error(ctx, "failed to list batches", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load batches")
		return
	}

	responses := make([]batchResponse, 0, len(batches))
	for _, batch := range batches {
		responses = append(responses, projectBatch(batch))
	}
	writeJSON(w, http.StatusOK, responses)
}

func createBatch(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()

	var payload batchCreateRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		applog.Debug(ctx, "invalid batch create payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	startDate, err := parseDateField(payload.StartDate, nowFunc().UTC())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "start_date must use the YYYY-MM-DD format")
		return
	}

	batch := models.Batch{
		StartDate:     startDate,
		StartGravity:  payload.StartGravity,
		MiddleGravity: payload.MiddleGravity,
		FinalGravity:  payload.FinalGravity,
		CreatorID:     userID,
	}

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := nextBatchNumber(tx, userID)
		if err != nil {
			return err
		}
		batch.BatchNumber = number
		return tx.Create(&batch).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to create batch", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create batch")
		return
	}

	writeJSON(w, http.StatusCreated, projectBatch(batch))
}

func showBatch(w http.ResponseWriter, r *http.Request, batchID, userID uint) {
	ctx := r.Context()
	batch, err := loadOwnedBatch(ctx, database, batchID, userID, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "batch not found or not owned", "id", batchID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load batch", "error", err, "id", batchID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load batch")
		return
	}

	writeJSON(w, http.StatusOK, projectBatch(*batch))
}

func updateBatch(w http.ResponseWriter, r *http.Request, batchID, userID uint) {
	ctx := r.Context()
	batch, err := loadOwnedBatch(ctx, database, batchID, userID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "update denied: batch not found or not owned", "id", batchID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load batch for update", "error", err, "id", batchID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load batch")
		return
	}

	if batch.IsFinished {
		writeJSONError(w, http.StatusConflict, "finished batches can no longer be edited")
		return
	}

	var payload batchUpdateRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		applog.Debug(ctx, "invalid batch update payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	updates := map[string]any{}
	if strings.TrimSpace(payload.StartDate) != "" {
		startDate, err := parseDateField(payload.StartDate, time.Time{})
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "start_date must use the YYYY-MM-DD format")
			return
		}
		updates["start_date"] = startDate
	}
	if payload.StartGravity != nil {
		updates["start_gravity"] = *payload.StartGravity
	}
	if payload.MiddleGravity != nil {
		updates["middle_gravity"] = *payload.MiddleGravity
	}
	if payload.FinalGravity != nil {
		updates["final_gravity"] = *payload.FinalGravity
	}

	if len(updates) > 0 {
		if err := database.WithContext(ctx).Model(batch).Updates(updates).Error; err != nil {
			applog.Error(ctx, "failed to update batch", "error", err, "id", batchID)
			writeJSONError(w, http.StatusInternalServerError, "unable to update batch")
			return
		}
	}

	reloaded, err := loadOwnedBatch(ctx, database, batchID, userID, true)
	if err != nil {
		applog.Error(ctx, "failed to reload batch after update", "error", err, "id", batchID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load updated batch")
		return
	}

	writeJSON(w, http.StatusOK, projectBatch(*reloaded))
}

func deleteBatch(w http.ResponseWriter, r *http.Request, batchID, userID uint) {
	ctx := r.Context()
	batch, err := loadOwnedBatch(ctx, database, batchID, userID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "delete denied: batch not found or not owned", "id", batchID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load batch for delete", "error", err, "id", batchID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load batch")
		return
	}

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("batch_id = ?", batch.ID).Delete(&models.BatchIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("batch_id = ?", batch.ID).Delete(&models.ProcessEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(batch).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to delete batch", "error", err, "id", batchID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete batch")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func finishBatch(w http.ResponseWriter, r *http.Request, batchID, userID uint) {
	ctx := r.Context()

	var payload batchFinishRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		applog.Debug(ctx, "invalid batch finish payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	productType := models.NormalizeProductType(payload.ProductType)
	if !models.ValidProductType(productType) {
		writeJSONError(w, http.StatusBadRequest, "product_type must be WINE or MEAD")
		return
	}

	var product models.FinishedProduct
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var batch models.Batch
		if err := tx.Preload("ProcessEntries", func(db *gorm.DB) *gorm.DB { return db.Order("date asc, id asc") }).
			Where("id = ? AND creator_id = ?", batchID, userID).
			First(&batch).Error; err != nil {
			return err
		}

		if batch.IsFinished {
			return errBatchFinished
		}
		if len(batch.ProcessEntries) == 0 {
			return errNoProcessEntries
		}

		finalGravity := batch.FinalGravity
		if payload.FinalGravity != nil {
			finalGravity = payload.FinalGravity
		}
		if finalGravity == nil {
			return errMissingFinalGravity
		}

		batch.FinalGravity = finalGravity
		abv := batch.ABV()
		if abv == nil {
			return errMissingFinalGravity
		}

		serial, err := nextSerialNumber(tx, productType)
		if err != nil {
			return err
		}

		product = models.FinishedProduct{
			BatchID:      batch.ID,
			CreatorID:    userID,
			ProductType:  productType,
			SerialNumber: serial,
			StartDate:    batch.StartDate,
			FinishDate:   nowFunc().UTC(),
			Description:  foldProcessLog(batch.ProcessEntries),
			ABV:          *abv,
		}
		if err := tx.Create(&product).Error; err != nil {
			return err
		}

		return tx.Model(&batch).Updates(map[string]any{
			"is_finished":   true,
			"final_gravity": *finalGravity,
		}).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			applog.Debug(ctx, "finish denied: batch not found or not owned", "id", batchID, "user", userID)
			http.NotFound(w, r)
		case errors.Is(err, errBatchFinished):
			writeJSONError(w, http.StatusConflict, "batch is already finished")
		case errors.Is(err, errNoProcessEntries):
			writeJSONError(w, http.StatusUnprocessableEntity, "record at least one process entry before finishing a batch")
		case errors.Is(err, errMissingFinalGravity):
			writeJSONError(w, http.StatusUnprocessableEntity, "final gravity is required to finish a batch")
		default:
			applog.Error(ctx, "failed to finish batch", "error", err, "id", batchID)
			writeJSONError(w, http.StatusInternalServerError, "unable to finish batch")
		}
		return
	}

	writeJSON(w, http.StatusCreated, projectFinishedProduct(product, false))
}

// nextBatchNumber assigns the next "{creator}-NNNN" label, probing forward
// when soft-deleted rows leave gaps that still hold the unique index.
func nextBatchNumber(tx *gorm.DB, userID uint) (string, error) {
	var count int64
	if err := tx.Model(&models.Batch{}).Unscoped().Where("creator_id = ?", userID).Count(&count).Error; err != nil {
		return "", err
	}

	sequence := count + 1
	for {
		candidate := fmt.Sprintf("%d-%04d", userID, sequence)
		var existing int64
		if err := tx.Model(&models.Batch{}).Unscoped().Where("batch_number = ?", candidate).Count(&existing).Error; err != nil {
			return "", err
		}
		if existing == 0 {
			return candidate, nil
		}
		sequence++
	}
}

// nextSerialNumber assigns the next "YYYYMM{TYPE}NNNN" product serial.
func nextSerialNumber(tx *gorm.DB, productType string) (string, error) {
	prefix := nowFunc().UTC().Format("200601") + productType
	var count int64
	if err := tx.Model(&models.FinishedProduct{}).Unscoped().Where("serial_number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return "", err
	}

	sequence := count + 1
	for {
		candidate := fmt.Sprintf("%s%04d", prefix, sequence)
		var existing int64
		if err := tx.Model(&models.FinishedProduct{}).Unscoped().Where("serial_number = ?", candidate).Count(&existing).Error; err != nil {
			return "", err
		}
		if existing == 0 {
			return candidate, nil
		}
		sequence++
	}
}

// foldProcessLog collapses a batch's process entries into the product description.
func foldProcessLog(entries []models.ProcessEntry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		trimmed := strings.TrimSpace(entry.Description)
		if trimmed == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", entry.Date.Format(batchDateLayout), trimmed))
	}
	return strings.Join(lines, "\n")
}

func loadOwnedBatch(ctx context.Context, db *gorm.DB, batchID, userID uint, preload bool) (*models.Batch, error) {
	query := db.WithContext(ctx).Where("id = ? AND creator_id = ?", batchID, userID)
	if preload {
		query = query.
			Preload("Ingredients.Ingredient").
			Preload("ProcessEntries", func(db *gorm.DB) *gorm.DB { return db.Order("date asc, id asc") })
	}

	var batch models.Batch
	if err := query.First(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func parseDateField(value string, fallback time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if fallback.IsZero() {
			return time.Time{}, errors.New("date is required")
		}
		return fallback, nil
	}
	if parsed, err := time.Parse(batchDateLayout, trimmed); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

func projectBatch(batch models.Batch) batchResponse {
	ingredients := make([]batchIngredientSummary, 0, len(batch.Ingredients))
	for _, addition := range batch.Ingredients {
		name := ""
		if addition.Ingredient != nil {
			name = addition.Ingredient.Name
		}
		ingredients = append(ingredients, batchIngredientSummary{
			ID:           addition.ID,
			IngredientID: addition.IngredientID,
			Name:         name,
			Amount:       addition.Amount,
			Unit:         addition.Unit,
		})
	}

	entries := make([]processEntrySummary, 0, len(batch.ProcessEntries))
	for _, entry := range batch.ProcessEntries {
		entries = append(entries, projectProcessEntry(entry))
	}

	return batchResponse{
		ID:             batch.ID,
		BatchNumber:    batch.BatchNumber,
		StartDate:      batch.StartDate.Format(batchDateLayout),
		StartGravity:   batch.StartGravity,
		MiddleGravity:  batch.MiddleGravity,
		FinalGravity:   batch.FinalGravity,
		ABV:            batch.ABV(),
		IsFinished:     batch.IsFinished,
		Ingredients:    ingredients,
		ProcessEntries: entries,
		CreatedAt:      batch.CreatedAt,
		UpdatedAt:      batch.UpdatedAt,
	}
}

func projectProcessEntry(entry models.ProcessEntry) processEntrySummary {
	return processEntrySummary{
		ID:          entry.ID,
		Date:        entry.Date.Format(batchDateLayout),
		Description: entry.Description,
	}
}
