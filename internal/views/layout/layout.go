package layout

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
)

// Layout renders the shared document shell: head, optional sidebar column and
// the main content region. The theme definition only selects the body class;
// fine-grained styling lives with the page components.
func Layout(title string, sidebar, content templ.Component, withSidebar bool, theme ThemeDefinition) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html lang="en" data-theme="%s"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title><link rel="stylesheet" href="/assets/app.css"><script src="/assets/htmx.min.js" defer></script></head><body class="%s">`,
			html.EscapeString(theme.ID), html.EscapeString(title), bodyWrapperClass(withSidebar),
		); err != nil {
			return err
		}

		if withSidebar && sidebar != nil {
			if err := sidebar.Render(ctx, w); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w, `<main class="%s">`, mainClass(withSidebar)); err != nil {
			return err
		}
		if content != nil {
			if err := content.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

func bodyWrapperClass(withSidebar bool) string {
	if withSidebar {
		return "layout layout--split"
	}
	return "layout layout--single"
}

func mainClass(withSidebar bool) string {
	if withSidebar {
		return "layout__main layout__main--beside-nav"
	}
	return "layout__main"
}
