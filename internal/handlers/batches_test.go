package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fermentum/models"
)

func postJSON(t *testing.T, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func putJSON(t *testing.T, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPut, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestBatchLifecycle(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	prevNow := nowFunc
	nowFunc = func() time.Time { return time.Date(2025, time.September, 14, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = prevNow })

	brewer := seedUser(t, db, "maren@example.com", "Maren")

	// create a batch
	req := postJSON(t, "/app/api/batches", map[string]any{
		"start_date":    "2025-09-01",
		"start_gravity": 1.102,
	})
	req = authenticateRequest(t, sm, req, brewer.ID)
	w := httptest.NewRecorder()
	BatchResource(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating batch, got %d: %s", w.Code, w.Body.String())
	}

	var batch batchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &batch); err != nil {
		t.Fatalf("failed to decode batch response: %v", err)
	}
	wantNumber := fmt.Sprintf("%d-0001", brewer.ID)
	if batch.BatchNumber != wantNumber {
		t.Fatalf("expected batch number %q, got %q", wantNumber, batch.BatchNumber)
	}
	if batch.IsFinished {
		t.Fatal("new batches must start active")
	}

	// record an addition by name, creating the catalog entry on the fly
	req = postJSON(t, "/app/api/batch-ingredients", map[string]any{
		"batch_id":        batch.ID,
		"ingredient_name": "Wildflower Honey",
		"amount":          6.0,
		"unit":            "kg",
	})
	req = authenticateRequest(t, sm, req, brewer.ID)
	w = httptest.NewRecorder()
	BatchIngredientResource(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 recording addition, got %d: %s", w.Code, w.Body.String())
	}

	// finishing without a process entry is refused
	req = postJSON(t, fmt.Sprintf("/app/api/batches/%d/finish", batch.ID), map[string]any{
		"product_type":  "MEAD",
		"final_gravity": 0.998,
	})
	req = authenticateRequest(t, sm, req, brewer.ID)
	w = httptest.NewRecorder()
	BatchResource(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 finishing without process entries, got %d", w.Code)
	}

	// log fermentation progress
	req = postJSON(t, "/app/api/process-entries", map[string]any{
		"batch_id":    batch.ID,
		"date":        "2025-09-05",
		"description": "Racked off the gross lees",
	})
	req = authenticateRequest(t, sm, req, brewer.ID)
	w = httptest.NewRecorder()
	ProcessEntryResource(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 recording process entry, got %d: %s", w.Code, w.Body.String())
	}

	// finish the batch
	req = postJSON(t, fmt.Sprintf("/app/api/batches/%d/finish", batch.ID), map[string]any{
		"product_type":  "mead",
		"final_gravity": 0.998,
	})
	req = authenticateRequest(t, sm, req, brewer.ID)
	w = httptest.NewRecorder()
	BatchResource(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 finishing batch, got %d: %s", w.Code, w.Body.String())
	}

	var product finishedProductResponse
	if err := json.Unmarshal(w.Body.Bytes(), &product); err != nil {
		t.Fatalf("failed to decode product response: %v", err)
	}
	if product.SerialNumber != "202509MEAD0001" {
		t.Fatalf("expected serial 202509MEAD0001, got %q", product.SerialNumber)
	}
	wantABV := 13.65
	if product.ABV != wantABV {
		t.Fatalf("expected abv %.2f, got %.2f", wantABV, product.ABV)
	}
	if !strings.Contains(product.Description, "Racked off the gross lees") {
		t.Fatalf("expected process log folded into description, got %q", product.Description)
	}

	// the batch is now closed to edits
	req = putJSON(t, fmt.Sprintf("/app/api/batches/%d", batch.ID), map[string]any{"start_gravity": 1.050})
	req = authenticateRequest(t, sm, req, brewer.ID)
	w = httptest.NewRecorder()
	BatchResource(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 updating finished batch, got %d", w.Code)
	}

	// finishing again conflicts
	req = postJSON(t, fmt.Sprintf("/app/api/batches/%d/finish", batch.ID), map[string]any{"product_type": "MEAD"})
	req = authenticateRequest(t, sm, req, brewer.ID)
	w = httptest.NewRecorder()
	BatchResource(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 finishing twice, got %d", w.Code)
	}

	var productCount int64
	if err := db.Model(&models.FinishedProduct{}).Count(&productCount).Error; err != nil {
		t.Fatalf("failed to count products: %v", err)
	}
	if productCount != 1 {
		t.Fatalf("expected exactly one product after double finish, got %d", productCount)
	}
}

func TestBatchOwnershipIsEnforced(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	owner := seedUser(t, db, "owner@example.com", "Owner")
	intruder := seedUser(t, db, "intruder@example.com", "Intruder")

	batch := models.Batch{BatchNumber: "1-0001", StartDate: time.Now().UTC(), StartGravity: 1.09, CreatorID: owner.ID}
	if err := db.Create(&batch).Error; err != nil {
		t.Fatalf("failed to seed batch: %v", err)
	}

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		var req *http.Request
		if method == http.MethodPut {
			req = putJSON(t, fmt.Sprintf("/app/api/batches/%d", batch.ID), map[string]any{"start_gravity": 1.05})
		} else {
			req = httptest.NewRequest(method, fmt.Sprintf("/app/api/batches/%d", batch.ID), nil)
		}
		req = authenticateRequest(t, sm, req, intruder.ID)
		w := httptest.NewRecorder()
		BatchResource(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s by non-owner: expected 404, got %d", method, w.Code)
		}
	}

	// listing only ever shows the caller's own batches
	req := httptest.NewRequest(http.MethodGet, "/app/api/batches", nil)
	req = authenticateRequest(t, sm, req, intruder.ID)
	w := httptest.NewRecorder()
	BatchResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 listing batches, got %d", w.Code)
	}
	var listing []batchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &listing); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if len(listing) != 0 {
		t.Fatalf("expected empty listing for intruder, got %d entries", len(listing))
	}
}

func TestBatchDeleteCascades(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	brewer := seedUser(t, db, "maren@example.com", "Maren")

	ingredient := models.Ingredient{Name: "Muscat Grapes"}
	if err := db.Create(&ingredient).Error; err != nil {
		t.Fatalf("failed to seed ingredient: %v", err)
	}
	batch := models.Batch{BatchNumber: "1-0001", StartDate: time.Now().UTC(), StartGravity: 1.09, CreatorID: brewer.ID}
	if err := db.Create(&batch).Error; err != nil {
		t.Fatalf("failed to seed batch: %v", err)
	}
	addition := models.BatchIngredient{BatchID: batch.ID, IngredientID: ingredient.ID, Amount: 12, Unit: models.UnitKilogram}
	if err := db.Create(&addition).Error; err != nil {
		t.Fatalf("failed to seed addition: %v", err)
	}
	entry := models.ProcessEntry{BatchID: batch.ID, Date: time.Now().UTC(), Description: "Crushed and pressed"}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("failed to seed process entry: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/app/api/batches/%d", batch.ID), nil)
	req = authenticateRequest(t, sm, req, brewer.ID)
	w := httptest.NewRecorder()
	BatchResource(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 deleting batch, got %d", w.Code)
	}

	var additions, entries, batches int64
	if err := db.Model(&models.BatchIngredient{}).Where("batch_id = ?", batch.ID).Count(&additions).Error; err != nil {
		t.Fatalf("failed to count additions: %v", err)
	}
	if err := db.Model(&models.ProcessEntry{}).Where("batch_id = ?", batch.ID).Count(&entries).Error; err != nil {
		t.Fatalf("failed to count entries: %v", err)
	}
	if err := db.Model(&models.Batch{}).Where("id = ?", batch.ID).Count(&batches).Error; err != nil {
		t.Fatalf("failed to count batches: %v", err)
	}
	if additions != 0 || entries != 0 || batches != 0 {
		t.Fatalf("expected cascade delete, got additions=%d entries=%d batches=%d", additions, entries, batches)
	}

	// the shared catalog row survives
	var catalog int64
	if err := db.Model(&models.Ingredient{}).Count(&catalog).Error; err != nil {
		t.Fatalf("failed to count catalog: %v", err)
	}
	if catalog != 1 {
		t.Fatalf("expected catalog ingredient to survive batch delete, got %d", catalog)
	}
}

func TestNextBatchNumberSkipsTakenLabels(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)

	brewer := seedUser(t, db, "maren@example.com", "Maren")

	first := models.Batch{BatchNumber: fmt.Sprintf("%d-0001", brewer.ID), StartDate: time.Now().UTC(), StartGravity: 1.08, CreatorID: brewer.ID}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("failed to seed batch: %v", err)
	}

	number, err := nextBatchNumber(db, brewer.ID)
	if err != nil {
		t.Fatalf("nextBatchNumber returned error: %v", err)
	}
	if want := fmt.Sprintf("%d-0002", brewer.ID); number != want {
		t.Fatalf("expected %q, got %q", want, number)
	}
}

func TestParseDateField(t *testing.T) {
	t.Parallel()

	fallback := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	got, err := parseDateField("2025-09-05", fallback)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(time.Date(2025, time.September, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parsed date %v", got)
	}

	got, err = parseDateField("", fallback)
	if err != nil {
		t.Fatalf("unexpected error for blank value: %v", err)
	}
	if !got.Equal(fallback) {
		t.Fatalf("expected fallback for blank value, got %v", got)
	}

	if _, err := parseDateField("next tuesday", fallback); err == nil {
		t.Fatal("expected error for unparseable date")
	}

	if _, err := parseDateField("", time.Time{}); err == nil {
		t.Fatal("expected error when blank with zero fallback")
	}
}

func TestFoldProcessLog(t *testing.T) {
	t.Parallel()

	entries := []models.ProcessEntry{
		{Date: time.Date(2025, time.September, 5, 0, 0, 0, 0, time.UTC), Description: "Pitched yeast"},
		{Date: time.Date(2025, time.September, 12, 0, 0, 0, 0, time.UTC), Description: "  Racked to secondary  "},
		{Date: time.Date(2025, time.September, 19, 0, 0, 0, 0, time.UTC), Description: ""},
	}

	got := foldProcessLog(entries)
	want := "2025-09-05: Pitched yeast\n2025-09-12: Racked to secondary"
	if got != want {
		t.Fatalf("foldProcessLog = %q, want %q", got, want)
	}
}
