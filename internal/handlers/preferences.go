package handlers

import (
	"net/http"
	"strings"

	applog "fermentum/internal/log"
	"fermentum/internal/views/theme"
)

type preferencesResponse struct {
	Theme     string `json:"theme"`
	BodyClass string `json:"body_class"`
}

// UpdatePreferences stores the brewer's workspace theme on their account and
// in the session, so the cellar shell repaints on the next render.
func UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		applog.Debug(r.Context(), "preferences update with unsupported method", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, err := loadCurrentUser(r)
	if err != nil {
		applog.Error(r.Context(), "unable to load brewer for preferences", "error", err)
		writeJSONError(w, http.StatusUnauthorized, "unable to load account")
		return
	}

	if err := r.ParseForm(); err != nil {
		applog.Error(r.Context(), "failed to parse preferences form", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid form submission")
		return
	}

	selected := theme.Resolve(strings.TrimSpace(r.FormValue("theme")))
	if selected.Key == "" {
		applog.Debug(r.Context(), "rejected unknown workspace theme", "value", r.FormValue("theme"))
		writeJSONError(w, http.StatusBadRequest, "invalid theme selection")
		return
	}

	if database == nil {
		applog.Debug(r.Context(), "database not configured; theme kept in session only")
	} else {
		applog.Debug(r.Context(), "updating workspace theme", "userID", user.ID, "theme", selected.Key)
		if err := database.WithContext(r.Context()).Model(user).Update("theme", selected.Key).Error; err != nil {
			applog.Error(r.Context(), "failed to persist workspace theme", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "failed to save preferences")
			return
		}
	}

	setSessionTheme(r, selected.Key)

	// the palette touches every panel, so a swapped fragment is not enough
	if isHTMX(r) {
		w.Header().Set("HX-Refresh", "true")
	}

	writeJSON(w, http.StatusOK, preferencesResponse{
		Theme:     selected.Key,
		BodyClass: selected.BodyClass,
	})
}
