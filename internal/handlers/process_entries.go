package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	applog "fermentum/internal/log"
	"fermentum/models"
)

type processEntryResponse struct {
	ID          uint   `json:"id"`
	BatchID     uint   `json:"batch_id"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type processEntryCreateRequest struct {
	BatchID     uint   `json:"batch_id" validate:"required"`
	Date        string `json:"date"`
	Description string `json:"description" validate:"required"`
}

// ProcessEntryResource handles the dated log entries recorded against a batch.
// The log is append-only; entries are folded into the finished product's
// description and are never edited after the fact.
func ProcessEntryResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "process entry request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "process entry request without authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/app/api/process-entries")
	path = strings.Trim(path, "/")

	if path != "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		listProcessEntries(w, r, userID)
	case http.MethodPost:
		createProcessEntry(w, r, userID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listProcessEntries(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()

	batchParam := strings.TrimSpace(r.URL.Query().Get("batch_id"))
	batchID, err := strconv.ParseUint(batchParam, 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "batch_id query parameter is required")
		return
	}

	if _, err := loadOwnedBatch(ctx, database, uint(batchID), userID, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "process entry list denied: batch not found or not owned", "batch", batchID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load batch for process entry list", "error", err, "batch", batchID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load process entries")
		return
	}

	var entries []models.ProcessEntry
	if err := database.WithContext(ctx).
		Where("batch_id = ?", uint(batchID)).
		Order("date asc, id asc").
		Find(&entries).Error; err != nil {
		applog.Error(ctx, "failed to list process entries", "error", err, "batch", batchID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load process entries")
		return
	}

	responses := make([]processEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, processEntryResponse{
			ID:          entry.ID,
			BatchID:     entry.BatchID,
			Date:        entry.Date.Format(batchDateLayout),
			Description: entry.Description,
		})
	}
	writeJSON(w, http.StatusOK, responses)
}

func createProcessEntry(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()

	var payload processEntryCreateRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		applog.Debug(ctx, "invalid process entry payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	batch, err := loadOwnedBatch(ctx, database, payload.BatchID, userID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "process entry create denied: batch not found or not owned", "batch", payload.BatchID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load batch for process entry", "error", err, "batch", payload.BatchID)
		writeJSONError(w, http.StatusInternalServerError, "unable to record process entry")
		return
	}

	if batch.IsFinished {
		writeJSONError(w, http.StatusConflict, "finished batches can no longer be edited")
		return
	}

	entryDate, err := parseDateField(payload.Date, nowFunc().UTC())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "date must use the YYYY-MM-DD format")
		return
	}

	entry := models.ProcessEntry{
		BatchID:     batch.ID,
		Date:        entryDate,
		Description: strings.TrimSpace(payload.Description),
	}
	if err := database.WithContext(ctx).Create(&entry).Error; err != nil {
		applog.Error(ctx, "failed to create process entry", "error", err, "batch", payload.BatchID)
		writeJSONError(w, http.StatusInternalServerError, "unable to record process entry")
		return
	}

	writeJSON(w, http.StatusCreated, processEntryResponse{
		ID:          entry.ID,
		BatchID:     entry.BatchID,
		Date:        entry.Date.Format(batchDateLayout),
		Description: entry.Description,
	})
}
