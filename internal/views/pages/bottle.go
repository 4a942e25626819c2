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

// PublicBottle renders the unauthenticated provenance page a QR code points at.
// It deliberately shows only what a bottle label would: product, vintage and
// process summary, never account details.
func PublicBottle(bottle models.Bottle, product models.FinishedProduct, batch models.Batch) templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<section class="bottle-page"><h1>%s</h1><p class="bottle-page__product">%s · %s</p>`+
				`<dl><dt>Bottled</dt><dd>%s</dd><dt>Volume</dt><dd>%.3f l</dd><dt>ABV</dt><dd>%.2f%%</dd>`+
				`<dt>Batch started</dt><dd>%s</dd><dt>Finished</dt><dd>%s</dd></dl>`,
			html.EscapeString(bottle.BottleNumber),
			html.EscapeString(product.SerialNumber),
			html.EscapeString(product.ProductType),
			FormatDate(bottle.DateBottled),
			bottle.Volume,
			product.ABV,
			FormatDate(batch.StartDate),
			FormatDate(product.FinishDate),
		); err != nil {
			return err
		}
		if product.Description != "" {
			if _, err := fmt.Fprintf(w, `<p class="bottle-page__notes">%s</p>`, html.EscapeString(product.Description)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</section>`)
		return err
	})
	return layout.Layout("Bottle "+bottle.BottleNumber+" — Fermentum", nil, content, false, layout.ThemeByID(models.DefaultTheme))
}
