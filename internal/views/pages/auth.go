package pages

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"fermentum/internal/views/layout"
	"fermentum/models"
)

// Login renders the full sign-in page.
func Login(message, email string) templ.Component {
	return layout.Layout("Sign in — Fermentum", nil, loginForm(message, email), false, layout.ThemeByID(models.DefaultTheme))
}

// LoginPartial renders only the sign-in form for HTMX swaps.
func LoginPartial(message, email string) templ.Component {
	return loginForm(message, email)
}

func loginForm(message, email string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="auth-panel" id="login-panel"><h1>Back to the cellar</h1>`); err != nil {
			return err
		}
		if err := flashMessage(w, message); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w,
			`<form method="post" action="/login" hx-post="/login" hx-target="#login-panel" hx-swap="outerHTML">`+
				`<label>Email<input type="email" name="email" value="%s" required></label>`+
				`<label>Password<input type="password" name="password" required></label>`+
				`<button type="submit">Sign in</button>`+
				`</form><p>No account yet? <a href="/signup" hx-boost="true">Create one</a>.</p></section>`,
			html.EscapeString(email),
		)
		return err
	})
}

// Signup renders the full registration page.
func Signup(message, name, email string) templ.Component {
	return layout.Layout("Create account — Fermentum", nil, signupForm(message, name, email), false, layout.ThemeByID(models.DefaultTheme))
}

// SignupPartial renders only the registration form for HTMX swaps.
func SignupPartial(message, name, email string) templ.Component {
	return signupForm(message, name, email)
}

func signupForm(message, name, email string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="auth-panel" id="signup-panel"><h1>Start your cellar log</h1>`); err != nil {
			return err
		}
		if err := flashMessage(w, message); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w,
			`<form method="post" action="/signup" hx-post="/signup" hx-target="#signup-panel" hx-swap="outerHTML">`+
				`<label>Name<input type="text" name="name" value="%s"></label>`+
				`<label>Email<input type="email" name="email" value="%s" required></label>`+
				`<label>Password<input type="password" name="password" required></label>`+
				`<label>Confirm password<input type="password" name="confirm_password" required></label>`+
				`<button type="submit">Create account</button>`+
				`</form><p>Already registered? <a href="/login" hx-boost="true">Sign in</a>.</p></section>`,
			html.EscapeString(name), html.EscapeString(email),
		)
		return err
	})
}

// Landing renders the public home page.
func Landing() templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w,
			`<section class="hero"><h1>Fermentum</h1>`+
				`<p>Track every batch from first gravity reading to the last bottle. Share the ones that turned out.</p>`+
				`<p><a href="/login" hx-boost="true">Sign in</a> or <a href="/signup" hx-boost="true">create an account</a>.</p></section>`)
		return err
	})
	return layout.Layout("Fermentum — a cellar log for home brewers", nil, content, false, layout.ThemeByID(models.DefaultTheme))
}

func flashMessage(w io.Writer, message string) error {
	if message == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, `<p class="flash" role="alert">%s</p>`, html.EscapeString(message))
	return err
}
