package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"fermentum/models"
)

func postPreferences(t *testing.T, themeValue string) *http.Request {
	t.Helper()
	form := url.Values{"theme": {themeValue}}
	req := httptest.NewRequest(http.MethodPost, "/app/preferences/update", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestUpdatePreferencesPersistsTheme(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	brewer := seedUser(t, db, "maren@example.com", "Maren")

	req := postPreferences(t, "copper_kettle")
	req = authenticateRequest(t, sm, req, brewer.ID)
	w := httptest.NewRecorder()
	UpdatePreferences(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"theme":"copper_kettle"`) {
		t.Fatalf("expected theme in response, got %s", w.Body.String())
	}

	var stored models.User
	if err := db.First(&stored, brewer.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.Theme != "copper_kettle" {
		t.Fatalf("expected stored theme copper_kettle, got %q", stored.Theme)
	}
	if got := sm.GetString(req.Context(), sessionUserThemeKey); got != "copper_kettle" {
		t.Fatalf("expected session theme copper_kettle, got %q", got)
	}
}

func TestUpdatePreferencesRejectsUnknownTheme(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	brewer := seedUser(t, db, "maren@example.com", "Maren")

	req := postPreferences(t, "neon")
	req = authenticateRequest(t, sm, req, brewer.ID)
	w := httptest.NewRecorder()
	UpdatePreferences(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown theme, got %d", w.Code)
	}

	var stored models.User
	if err := db.First(&stored, brewer.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if stored.Theme == "neon" {
		t.Fatal("unknown theme must not be stored")
	}
}

func TestUpdatePreferencesTriggersHTMXRefresh(t *testing.T) {
	db, cleanupDB := withTestDatabase(t)
	t.Cleanup(cleanupDB)
	sm, cleanupSession := withTestSessionManager(t)
	t.Cleanup(cleanupSession)

	brewer := seedUser(t, db, "maren@example.com", "Maren")

	req := postPreferences(t, "parchment")
	req.Header.Set("HX-Request", "true")
	req = authenticateRequest(t, sm, req, brewer.ID)
	w := httptest.NewRecorder()
	UpdatePreferences(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("HX-Refresh"); got != "true" {
		t.Fatalf("expected HX-Refresh header, got %q", got)
	}
}
