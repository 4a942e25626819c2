package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fermentum/models"
)

func withTestSessionManager(t *testing.T) (*scs.SessionManager, func()) {
	t.Helper()
	original := sessionManager
	sm := scs.New()
	sessionManager = sm
	return sm, func() {
		sessionManager = original
	}
}

func withTestDatabase(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	original := database
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Ingredient{},
		&models.Batch{},
		&models.BatchIngredient{},
		&models.ProcessEntry{},
		&models.FinishedProduct{},
		&models.Bottle{},
		&models.SharedProduct{},
		&models.ProductLike{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	database = db
	return db, func() {
		database = original
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func authenticateRequest(t *testing.T, sm *scs.SessionManager, req *http.Request, userID uint) *http.Request {
	t.Helper()
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	req = req.WithContext(ctx)
	sm.Put(req.Context(), sessionUserIDKey, int(userID))
	sm.Put(req.Context(), sessionAuthenticatedKey, true)
	return req
}

func seedUser(t *testing.T, db *gorm.DB, email, name string) models.User {
	t.Helper()
	user := models.User{Email: email, Name: name, PasswordHash: "hash"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return user
}

func TestIsHTMX(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTMX(req) {
		t.Fatal("expected false when no HTMX headers present")
	}
	req.Header.Set("HX-Request", "true")
	if !isHTMX(req) {
		t.Fatal("expected true when HX-Request header present")
	}
}

func TestWorkspaceSectionFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{"/app", "", true},
		{"/app/", "", true},
		{"/app/batches", "batches", true},
		{"/app/products", "products", true},
		{"/app/shared", "shared", true},
		{"/app/tools", "tools", true},
		{"/app/unknown", "", false},
		{"/app/batches/7", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, ok := workspaceSectionFromPath(tt.path)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("workspaceSectionFromPath(%q) = (%q, %v), want (%q, %v)", tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCreateUserHashesPassword(t *testing.T) {
	db, cleanup := withTestDatabase(t)
	t.Cleanup(cleanup)

	req := httptest.NewRequest(http.MethodPost, "/signup", nil)
	user, err := createUser(req, "Brewer@Example.com", "Maren", "orchard-floor")
	if err != nil {
		t.Fatalf("createUser returned error: %v", err)
	}

	if user.Email != "brewer@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("orchard-floor")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	var stored models.User
	if err := db.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("failed to reload created user: %v", err)
	}
	if stored.Theme != "" && !models.ValidTheme(models.NormalizeTheme(stored.Theme)) {
		t.Fatalf("unexpected theme default %q", stored.Theme)
	}
}

func TestEstablishSessionStoresTheme(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	req = req.WithContext(ctx)

	user := &models.User{Model: gorm.Model{ID: 9}, Email: "brewer@example.com", Name: "Maren", Theme: models.ThemeParchment}
	if err := establishSession(req, user); err != nil {
		t.Fatalf("establishSession returned error: %v", err)
	}

	if !sm.GetBool(req.Context(), sessionAuthenticatedKey) {
		t.Fatal("expected session to be authenticated")
	}
	if got := sm.GetInt(req.Context(), sessionUserIDKey); got != 9 {
		t.Fatalf("expected user id 9 in session, got %d", got)
	}
	if got := sm.GetString(req.Context(), sessionUserThemeKey); got != models.ThemeParchment {
		t.Fatalf("expected theme %q in session, got %q", models.ThemeParchment, got)
	}
}

func TestRequireAuthenticationRedirects(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	protected := RequireAuthentication(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect for anonymous request, got %d", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/login" {
		t.Fatalf("expected redirect to /login, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/app", nil)
	req = authenticateRequest(t, sm, req, 4)
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for authenticated request, got %d", w.Code)
	}
}

func TestRequireAuthenticationHTMXRedirect(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	protected := RequireAuthentication(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	req.Header.Set("HX-Request", "true")
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session context: %v", err)
	}
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	if got := w.Header().Get("HX-Redirect"); got != "/login" {
		t.Fatalf("expected HX-Redirect header to /login, got %q", got)
	}
}

func TestSetPublicBaseURLTrimsTrailingSlash(t *testing.T) {
	original := publicBaseURL
	t.Cleanup(func() { publicBaseURL = original })

	SetPublicBaseURL("https://cellar.example.com/")
	if publicBaseURL != "https://cellar.example.com" {
		t.Fatalf("unexpected base url %q", publicBaseURL)
	}

	SetPublicBaseURL("   ")
	if publicBaseURL != "https://cellar.example.com" {
		t.Fatalf("blank value should not replace base url, got %q", publicBaseURL)
	}
}
