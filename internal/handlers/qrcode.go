package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	applog "fermentum/internal/log"
)

const qrImageSize = 256

// QRCode renders label-ready PNG codes under /app/qr/{kind}/{id}. Bottle
// codes point at the public provenance page; batch and product codes
// deep-link the owner's workspace filtered to that label.
func QRCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/app/qr"), "/")
	segments := strings.Split(path, "/")
	if len(segments) != 2 {
		http.NotFound(w, r)
		return
	}

	idValue, err := strconv.ParseUint(segments[1], 10, 64)
	if err != nil {
		applog.Debug(r.Context(), "invalid qr target identifier", "identifier", segments[1], "error", err)
		http.NotFound(w, r)
		return
	}

	var target string
	switch segments[0] {
	case "batch":
		batch, err := loadOwnedBatch(r.Context(), database, uint(idValue), userID, false)
		if err != nil {
			qrLookupError(w, r, err, "batch", uint(idValue))
			return
		}
		target = publicBaseURL + "/app/batches?number=" + url.QueryEscape(batch.BatchNumber)
	case "bottle":
		bottle, err := loadOwnedBottle(r.Context(), uint(idValue), userID)
		if err != nil {
			qrLookupError(w, r, err, "bottle", uint(idValue))
			return
		}
		target = publicBottleURL(*bottle)
	case "product":
		product, err := loadOwnedProduct(r.Context(), uint(idValue), userID, false)
		if err != nil {
			qrLookupError(w, r, err, "product", uint(idValue))
			return
		}
		target = publicBaseURL + "/app/products?serial=" + url.QueryEscape(product.SerialNumber)
	default:
		http.NotFound(w, r)
		return
	}

	png, err := qrcode.Encode(target, qrcode.Medium, qrImageSize)
	if err != nil {
		applog.Error(r.Context(), "failed to encode qr image", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(png)
}

func qrLookupError(w http.ResponseWriter, r *http.Request, err error, kind string, id uint) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		applog.Debug(r.Context(), "qr target not found or not owned", "kind", kind, "id", id)
		http.NotFound(w, r)
		return
	}
	applog.Error(r.Context(), "failed to load qr target", "error", err, "kind", kind, "id", id)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
