package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fermentum/models"
)

func TestFindOrCreateIngredientReusesByName(t *testing.T) {
	db, cleanup := withTestDatabase(t)
	t.Cleanup(cleanup)

	ctx := context.Background()

	first, created, err := findOrCreateIngredient(ctx, db, "Wildflower Honey", "Raw, unfiltered")
	if err != nil {
		t.Fatalf("first call returned error: %v", err)
	}
	if !created {
		t.Fatal("expected first call to create the catalog entry")
	}

	second, created, err := findOrCreateIngredient(ctx, db, "  wildflower honey  ", "")
	if err != nil {
		t.Fatalf("second call returned error: %v", err)
	}
	if created {
		t.Fatal("expected case-insensitive match to reuse the existing entry")
	}
	if second.ID != first.ID {
		t.Fatalf("expected ids to match, got %d and %d", first.ID, second.ID)
	}

	var count int64
	if err := db.Model(&models.Ingredient{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count ingredients: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single catalog row, got %d", count)
	}

	if _, _, err := findOrCreateIngredient(ctx, db, "   ", ""); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestIngredientResourceCatalog(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	brewer := seedUser(t, db, "maren@example.com", "Maren")

	req := postJSON(t, "/app/api/ingredients", map[string]any{
		"name":        "Lalvin D47",
		"description": "White wine yeast",
	})
	req = authenticateRequest(t, sm, req, brewer.ID)
	w := httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating ingredient, got %d: %s", w.Code, w.Body.String())
	}

	// same name again returns the existing entry
	req = postJSON(t, "/app/api/ingredients", map[string]any{"name": "lalvin d47"})
	req = authenticateRequest(t, sm, req, brewer.ID)
	w = httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for duplicate name, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/app/api/ingredients?q=lalvin", nil)
	req = authenticateRequest(t, sm, req, brewer.ID)
	w = httptest.NewRecorder()
	IngredientResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 listing ingredients, got %d", w.Code)
	}

	var listing []ingredientResponse
	if err := json.Unmarshal(w.Body.Bytes(), &listing); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if len(listing) != 1 {
		t.Fatalf("expected one catalog entry, got %d", len(listing))
	}
	if listing[0].Name != "Lalvin D47" || listing[0].Description != "White wine yeast" {
		t.Fatalf("unexpected catalog entry %+v", listing[0])
	}
}
