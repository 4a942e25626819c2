package components

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
)

// SidebarLink is a single navigation entry in the workspace sidebar.
type SidebarLink struct {
	Label   string
	Path    string
	Section string
}

// SidebarData drives the sidebar navigation state.
type SidebarData struct {
	Active   string
	Features []SidebarLink
}

// Sidebar renders the workspace navigation column.
func Sidebar(data SidebarData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<aside class="sidebar"><nav class="sidebar__nav">`); err != nil {
			return err
		}
		for _, link := range data.Features {
			if _, err := fmt.Fprintf(w,
				`<a href="%s" hx-boost="true" data-nav-section="%s" data-state="%s" class="sidebar__link">%s</a>`,
				html.EscapeString(link.Path),
				html.EscapeString(link.Section),
				linkState(link.Section, data.Active),
				html.EscapeString(link.Label),
			); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</nav></aside>`)
		return err
	})
}

func linkState(section, active string) string {
	if section == active {
		return "active"
	}
	return "inactive"
}

// StatCard renders a single headline metric used on the overview page.
func StatCard(label, value, delta, caption string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="stat-card"><p class="stat-card__label">%s</p><p class="stat-card__value">%s</p><p class="stat-card__delta">%s</p><p class="stat-card__caption">%s</p></div>`,
			html.EscapeString(label), html.EscapeString(value), html.EscapeString(delta), html.EscapeString(caption),
		)
		return err
	})
}

// ActivityEntry is one row of the recent-activity table.
type ActivityEntry struct {
	Name      string
	Reference string
	Quantity  string
	Progress  string
	UpdatedAt string
	Status    string
}

// ActivityTable renders recent cellar activity as a compact table.
func ActivityTable(entries []ActivityEntry) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<table class="activity"><thead><tr><th>Name</th><th>Reference</th><th>Quantity</th><th>Progress</th><th>Updated</th><th>Status</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, entry := range entries {
			if _, err := fmt.Fprintf(w,
				`<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				html.EscapeString(entry.Name),
				html.EscapeString(entry.Reference),
				html.EscapeString(entry.Quantity),
				html.EscapeString(entry.Progress),
				html.EscapeString(entry.UpdatedAt),
				html.EscapeString(entry.Status),
			); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
}
