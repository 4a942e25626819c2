package handlers

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"

	applog "fermentum/internal/log"
	"fermentum/internal/views/pages"
	"fermentum/models"
)

// Landing serves the unauthenticated landing page.
func Landing(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if ActiveSession(r) {
		redirectToApp(w, r)
		return
	}
	renderComponent(w, r, pages.Landing())
}

// Workspace serves the authenticated cellar views under /app.
func Workspace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	section, ok := workspaceSectionFromPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	snapshot := buildWorkspaceSnapshot(r)

	component := pages.Workspace(snapshot, section)
	if isHTMX(r) {
		component = pages.WorkspacePartial(snapshot, section)
	}
	renderComponent(w, r, component)
}

func workspaceSectionFromPath(path string) (string, bool) {
	trimmed := strings.Trim(strings.TrimPrefix(path, "/app"), "/")
	switch trimmed {
	case pages.SectionOverview, pages.SectionBatches, pages.SectionProducts, pages.SectionShared, pages.SectionTools:
		return trimmed, true
	default:
		return "", false
	}
}

// buildWorkspaceSnapshot assembles everything the workspace views render:
// the user's batches and products plus the community shared board.
func buildWorkspaceSnapshot(r *http.Request) pages.WorkspaceSnapshot {
	userID, ok := currentUserID(r)
	if !ok || database == nil {
		return pages.EmptyWorkspaceSnapshot()
	}

	ctx := r.Context()

	var batches []models.Batch
	if err := database.WithContext(ctx).
		Preload("Ingredients.Ingredient").
		Preload("ProcessEntries").
		Where("creator_id = ?", userID).
		Find(&batches).Error; err != nil {
		applog.Error(ctx, "failed to load batches for workspace", "error", err)
		return pages.EmptyWorkspaceSnapshot()
	}

	var products []models.FinishedProduct
	if err := database.WithContext(ctx).
		Preload("Bottles").
		Where("creator_id = ?", userID).
		Find(&products).Error; err != nil {
		applog.Error(ctx, "failed to load products for workspace", "error", err)
		return pages.EmptyWorkspaceSnapshot()
	}

	top, rest, err := loadSharedListings(r, userID)
	if err != nil {
		applog.Error(ctx, "failed to load shared products for workspace", "error", err)
	}

	return pages.NewWorkspaceSnapshot(batches, products, top, rest, loadCurrentUserTheme(r), userID)
}

func renderComponent(w http.ResponseWriter, r *http.Request, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render view", "error", err)
	}
}
