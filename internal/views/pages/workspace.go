package pages

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"fermentum/internal/views/components"
	"fermentum/internal/views/layout"
)

// Workspace sections addressable under /app/{section}.
const (
	SectionOverview = ""
	SectionBatches  = "batches"
	SectionProducts = "products"
	SectionShared   = "shared"
	SectionTools    = "tools"
)

// Workspace renders the full authenticated shell with the requested section.
func Workspace(snapshot WorkspaceSnapshot, section string) templ.Component {
	return layout.Layout("Cellar — Fermentum", workspaceSidebar(section), sectionComponent(snapshot, section), true, layout.ThemeByID(snapshot.Theme))
}

// WorkspacePartial renders only the requested section for HTMX swaps.
func WorkspacePartial(snapshot WorkspaceSnapshot, section string) templ.Component {
	return sectionComponent(snapshot, section)
}

func workspaceSidebar(active string) templ.Component {
	return components.Sidebar(components.SidebarData{
		Active: active,
		Features: []components.SidebarLink{
			{Label: "Overview", Path: "/app", Section: SectionOverview},
			{Label: "Batches", Path: "/app/batches", Section: SectionBatches},
			{Label: "Products", Path: "/app/products", Section: SectionProducts},
			{Label: "Shared cellar", Path: "/app/shared", Section: SectionShared},
			{Label: "Tools", Path: "/app/tools", Section: SectionTools},
		},
	})
}

func sectionComponent(snapshot WorkspaceSnapshot, section string) templ.Component {
	switch section {
	case SectionBatches:
		return BatchBoard(snapshot)
	case SectionProducts:
		return ProductBoard(snapshot)
	case SectionShared:
		return SharedBoard(snapshot)
	case SectionTools:
		return ToolsPanel(snapshot, "", "")
	default:
		return Overview(snapshot)
	}
}

// Overview renders headline numbers and the most recent cellar activity.
func Overview(snapshot WorkspaceSnapshot) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		active := 0
		for _, batch := range snapshot.Batches {
			if !batch.IsFinished {
				active++
			}
		}
		bottles := 0
		for _, product := range snapshot.Products {
			bottles += len(product.Bottles)
		}

		if _, err := io.WriteString(w, `<section id="workspace-section" class="workspace workspace--overview"><div class="stat-grid">`); err != nil {
			return err
		}
		cards := []templ.Component{
			components.StatCard("Active batches", fmt.Sprintf("%d", active), "", "Fermenting right now"),
			components.StatCard("Finished products", fmt.Sprintf("%d", len(snapshot.Products)), "", "Ready for the rack"),
			components.StatCard("Bottles", fmt.Sprintf("%d", bottles), "", "Across all products"),
		}
		for _, card := range cards {
			if err := card.Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</div>`); err != nil {
			return err
		}

		entries := make([]components.ActivityEntry, 0, len(snapshot.Batches))
		for _, batch := range snapshot.Batches {
			entries = append(entries, components.ActivityEntry{
				Name:      "Batch " + batch.BatchNumber,
				Reference: batch.BatchNumber,
				Quantity:  fmt.Sprintf("%d ingredients", len(batch.Ingredients)),
				Progress:  "SG " + FormatGravity(batch.StartGravity),
				UpdatedAt: FormatDate(batch.StartDate),
				Status:    BatchStatusLabel(batch),
			})
		}
		if err := components.ActivityTable(entries).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

// BatchBoard lists the user's batches with gravities and lifecycle state.
func BatchBoard(snapshot WorkspaceSnapshot) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section id="workspace-section" class="workspace workspace--batches"><h2>Batches</h2><table class="batch-table"><thead><tr><th>Number</th><th>Started</th><th>OG</th><th>FG</th><th>ABV</th><th>Status</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, batch := range snapshot.Batches {
			if _, err := fmt.Fprintf(w,
				`<tr data-batch-id="%d"><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				batch.ID,
				html.EscapeString(batch.BatchNumber),
				FormatDate(batch.StartDate),
				FormatGravity(batch.StartGravity),
				FormatOptionalGravity(batch.FinalGravity),
				FormatABV(batch.ABV()),
				BatchStatusLabel(batch),
			); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</tbody></table>`); err != nil {
			return err
		}
		for _, batch := range snapshot.Batches {
			if _, err := fmt.Fprintf(w, `<article class="batch-card" data-batch-id="%d"><h3>%s</h3><ul>`, batch.ID, html.EscapeString(batch.BatchNumber)); err != nil {
				return err
			}
			for _, addition := range batch.Ingredients {
				if _, err := fmt.Fprintf(w, `<li>%s</li>`, html.EscapeString(IngredientLine(addition))); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</ul><ol class="process-log">`); err != nil {
				return err
			}
			for _, entry := range batch.ProcessEntries {
				if _, err := fmt.Fprintf(w, `<li><time>%s</time> %s</li>`, FormatDate(entry.Date), html.EscapeString(entry.Description)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</ol></article>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

// ProductBoard lists finished products with their bottles.
func ProductBoard(snapshot WorkspaceSnapshot) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section id="workspace-section" class="workspace workspace--products"><h2>Finished products</h2>`); err != nil {
			return err
		}
		for _, product := range snapshot.Products {
			if _, err := fmt.Fprintf(w,
				`<article class="product-card" data-product-id="%d"><h3>%s · %s</h3><p>ABV %.2f%% · finished %s</p><p>%s</p><img src="/app/qr/product/%d" alt="QR code for %s" width="128" height="128"><ul class="bottle-list">`,
				product.ID,
				html.EscapeString(product.SerialNumber),
				html.EscapeString(product.ProductType),
				product.ABV,
				FormatDate(product.FinishDate),
				html.EscapeString(product.Description),
				product.ID,
				html.EscapeString(product.SerialNumber),
			); err != nil {
				return err
			}
			for _, bottle := range product.Bottles {
				if _, err := fmt.Fprintf(w,
					`<li data-bottle-id="%d">%s · %.3f l · bottled %s <img src="/app/qr/bottle/%d" alt="label QR" width="96" height="96"></li>`,
					bottle.ID,
					html.EscapeString(bottle.BottleNumber),
					bottle.Volume,
					FormatDate(bottle.DateBottled),
					bottle.ID,
				); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</ul></article>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

// SharedBoard renders the community cellar: the most liked shares first.
func SharedBoard(snapshot WorkspaceSnapshot) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section id="workspace-section" class="workspace workspace--shared"><h2>Shared cellar</h2><h3>Most liked</h3>`); err != nil {
			return err
		}
		if err := renderSharedListings(w, snapshot.SharedTop); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<h3>Recently shared</h3>`); err != nil {
			return err
		}
		if err := renderSharedListings(w, snapshot.SharedRest); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
}

func renderSharedListings(w io.Writer, listings []SharedListing) error {
	if _, err := io.WriteString(w, `<ul class="shared-list">`); err != nil {
		return err
	}
	for _, listing := range listings {
		serial := ""
		sharer := ""
		if listing.Shared.Product != nil {
			serial = listing.Shared.Product.SerialNumber
		}
		if listing.Shared.SharedBy != nil {
			sharer = listing.Shared.SharedBy.Name
		}
		action := "like"
		label := "Like"
		if listing.HasLiked {
			action = "unlike"
			label = "Unlike"
		}
		if _, err := fmt.Fprintf(w,
			`<li data-shared-id="%d">%s shared by %s — <span class="likes-count">%d</span> likes `+
				`<button hx-post="/app/api/shared-products/%d/%s" hx-target="closest li" hx-swap="outerHTML">%s</button></li>`,
			listing.Shared.ID,
			html.EscapeString(serial),
			html.EscapeString(sharer),
			listing.LikesCount,
			listing.Shared.ID,
			action,
			label,
		); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</ul>`)
	return err
}

// ToolsPanel renders the brew-sheet import tool with an optional status or error banner.
func ToolsPanel(snapshot WorkspaceSnapshot, status, errorMessage string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section id="workspace-section" class="workspace workspace--tools"><h2>Tools</h2>`); err != nil {
			return err
		}
		if status != "" {
			if _, err := fmt.Fprintf(w, `<p class="tools-status">%s</p>`, html.EscapeString(status)); err != nil {
				return err
			}
		}
		if errorMessage != "" {
			if _, err := fmt.Fprintf(w, `<p class="tools-error" role="alert">%s</p>`, html.EscapeString(errorMessage)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w,
			`<form method="post" action="/app/tools/import-brew-sheet" enctype="multipart/form-data" `+
				`hx-post="/app/tools/import-brew-sheet" hx-target="#workspace-section" hx-swap="outerHTML">`+
				`<label>Batch<select name="batch_id">`); err != nil {
			return err
		}
		for _, batch := range snapshot.Batches {
			if batch.IsFinished {
				continue
			}
			if _, err := fmt.Fprintf(w, `<option value="%d">%s</option>`, batch.ID, html.EscapeString(batch.BatchNumber)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w,
			`</select></label>`+
				`<label>Brew sheet (PDF or text)<input type="file" name="brew_sheet"></label>`+
				`<label>Or paste the ingredient list<textarea name="sheet_text" rows="6"></textarea></label>`+
				`<button type="submit">Import ingredients</button></form></section>`)
		return err
	})
}
