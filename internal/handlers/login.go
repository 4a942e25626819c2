package handlers

import (
	"net/http"
	"strings"

	applog "fermentum/internal/log"
	"fermentum/internal/views/pages"
)

// Login renders the login screen and processes credential submissions.
func Login(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if ActiveSession(r) {
			redirectToApp(w, r)
			return
		}
		renderLogin(w, r, "")
	case http.MethodPost:
		handleLoginSubmission(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func handleLoginSubmission(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		applog.Error(r.Context(), "failed to parse login form", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	if email == "" || password == "" {
		if sessionManager != nil {
			sessionManager.Put(r.Context(), sessionLoginMessageKey, "Both email and password are required.")
		}
		renderLogin(w, r, email)
		return
	}

	if !authenticate(w, r, email, password) {
		renderLogin(w, r, email)
		return
	}

	redirectToApp(w, r)
}

func renderLogin(w http.ResponseWriter, r *http.Request, email string) {
	message := popLoginMessage(r)

	component := pages.Login(message, email)
	if isHTMX(r) {
		component = pages.LoginPartial(message, email)
	}
	renderComponent(w, r, component)
}

func popLoginMessage(r *http.Request) string {
	if sessionManager == nil {
		return ""
	}
	return sessionManager.PopString(r.Context(), sessionLoginMessageKey)
}
