package handlers

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "fermentum/internal/log"
	"fermentum/internal/views/pages"
)

const minimumPasswordLength = 8

// Signup renders the registration screen and processes new account submissions.
func Signup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if ActiveSession(r) {
			redirectToApp(w, r)
			return
		}
		renderSignup(w, r, "", "", "")
	case http.MethodPost:
		handleSignupSubmission(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func handleSignupSubmission(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		applog.Error(r.Context(), "failed to parse signup form", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.PostFormValue("name"))
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	if message := validateSignup(name, email, password); message != "" {
		renderSignup(w, r, message, name, email)
		return
	}

	if _, err := findUserByEmail(r, email); err == nil {
		renderSignup(w, r, "An account with that email already exists.", name, email)
		return
	} else if err != gorm.ErrRecordNotFound {
		applog.Error(r.Context(), "failed to check for existing account", "error", err)
		renderSignup(w, r, "We were unable to create your account. Please try again.", name, email)
		return
	}

	user, err := createUser(r, email, name, password)
	if err != nil {
		applog.Error(r.Context(), "failed to create account", "error", err)
		renderSignup(w, r, "We were unable to create your account. Please try again.", name, email)
		return
	}

	if err := establishSession(r, user); err != nil {
		applog.Error(r.Context(), "failed to establish session after signup", "error", err)
		renderLogin(w, r, email)
		return
	}

	redirectToApp(w, r)
}

func validateSignup(name, email, password string) string {
	if name == "" || email == "" || password == "" {
		return "Name, email and password are all required."
	}
	if !strings.Contains(email, "@") {
		return "Please provide a valid email address."
	}
	if len(password) < minimumPasswordLength {
		return "Passwords must be at least 8 characters long."
	}
	return ""
}

func renderSignup(w http.ResponseWriter, r *http.Request, message, name, email string) {
	component := pages.Signup(message, name, email)
	if isHTMX(r) {
		component = pages.SignupPartial(message, name, email)
	}
	renderComponent(w, r, component)
}
