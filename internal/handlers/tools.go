package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"gorm.io/gorm"

	applog "fermentum/internal/log"
	"fermentum/internal/views/pages"
	"fermentum/models"
)

const maxBrewSheetUploadSize = 5 << 20 // 5 MiB

// brewSheetLine matches "6 kg Wildflower Honey" style addition lines.
var brewSheetLine = regexp.MustCompile(`(?i)^(\d+(?:[.,]\d+)?)\s*(kg|g|l|ml)\b[\s:._-]*(.+)$`)

type brewSheetAddition struct {
	Name   string
	Amount float64
	Unit   string
}

// ToolsImportBrewSheet ingests a recipe sheet (plain text or PDF) and records
// its addition lines against one of the user's active batches.
func ToolsImportBrewSheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snapshot := buildWorkspaceSnapshot(r)

	userID, ok := currentUserID(r)
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	if err := r.ParseMultipartForm(maxBrewSheetUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		applog.Error(r.Context(), "failed to parse brew sheet form", "error", err)
		renderComponent(w, r, pages.ToolsPanel(snapshot, "", "Upload is too large or invalid. Please retry with a smaller file."))
		return
	}

	batchID := pages.ParseUint(r.FormValue("batch_id"))
	if batchID == 0 {
		renderComponent(w, r, pages.ToolsPanel(snapshot, "", "Choose the batch the sheet belongs to."))
		return
	}

	rawText := strings.TrimSpace(r.FormValue("sheet_text"))

	fileBytes, fileType, err := readBrewSheetUpload(r)
	if err != nil {
		applog.Error(r.Context(), "brew sheet upload read failed", "error", err)
		renderComponent(w, r, pages.ToolsPanel(snapshot, "", "Unable to read the uploaded file. Please try again."))
		return
	}

	if len(fileBytes) > 0 {
		extracted, convErr := deriveTextFromBrewSheet(fileBytes, fileType)
		if convErr != nil {
			applog.Error(r.Context(), "failed to extract brew sheet text", "error", convErr, "mime", fileType)
			renderComponent(w, r, pages.ToolsPanel(snapshot, "", "We couldn't interpret the uploaded document. Try a plain text or PDF sheet."))
			return
		}
		if strings.TrimSpace(extracted) != "" {
			if rawText != "" {
				rawText += "\n"
			}
			rawText += extracted
		}
	}

	if strings.TrimSpace(rawText) == "" {
		renderComponent(w, r, pages.ToolsPanel(snapshot, "", "Provide sheet text or upload a document before running the import."))
		return
	}

	additions, skipped := parseBrewSheet(rawText)
	if len(additions) == 0 {
		renderComponent(w, r, pages.ToolsPanel(snapshot, "", "No addition lines were found. Expected lines like \"6 kg Wildflower Honey\"."))
		return
	}

	ctx := r.Context()
	batch, err := loadOwnedBatch(ctx, database, batchID, userID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderComponent(w, r, pages.ToolsPanel(snapshot, "", "That batch does not exist in your cellar."))
			return
		}
		applog.Error(ctx, "failed to load batch for brew sheet import", "error", err, "batch", batchID)
		renderComponent(w, r, pages.ToolsPanel(snapshot, "", "We couldn't save the imported sheet. Please try again."))
		return
	}
	if batch.IsFinished {
		renderComponent(w, r, pages.ToolsPanel(snapshot, "", "Finished batches can no longer be edited."))
		return
	}

	if err := persistBrewSheet(ctx, batch.ID, additions); err != nil {
		applog.Error(ctx, "persist brew sheet failed", "error", err, "batch", batchID)
		renderComponent(w, r, pages.ToolsPanel(snapshot, "", "We couldn't save the imported sheet. Please try again."))
		return
	}

	snapshot = buildWorkspaceSnapshot(r)
	message := fmt.Sprintf("Imported %d additions into batch %s.", len(additions), batch.BatchNumber)
	if skipped > 0 {
		message = fmt.Sprintf("%s Skipped %d lines that didn't look like additions.", message, skipped)
	}
	renderComponent(w, r, pages.ToolsPanel(snapshot, message, ""))
}

func readBrewSheetUpload(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("brew_sheet")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", nil
		}
		return nil, "", err
	}
	defer file.Close()

	if header.Size > maxBrewSheetUploadSize {
		return nil, "", fmt.Errorf("file exceeds %d bytes", maxBrewSheetUploadSize)
	}

	buf := bytes.NewBuffer(make([]byte, 0, header.Size))
	if _, err := io.Copy(buf, file); err != nil {
		return nil, "", err
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = brewSheetMimeFromName(header.Filename)
	}

	return buf.Bytes(), mime, nil
}

func deriveTextFromBrewSheet(data []byte, mime string) (string, error) {
	lower := strings.ToLower(mime)
	switch {
	case strings.Contains(lower, "pdf"):
		return extractTextFromPDF(data)
	default:
		return string(data), nil
	}
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

func brewSheetMimeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return "text/plain"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// parseBrewSheet extracts addition lines, reporting how many non-empty lines
// did not match.
func parseBrewSheet(text string) ([]brewSheetAddition, int) {
	var additions []brewSheetAddition
	skipped := 0

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		match := brewSheetLine.FindStringSubmatch(trimmed)
		if match == nil {
			skipped++
			continue
		}

		amount, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", "."), 64)
		if err != nil || amount <= 0 {
			skipped++
			continue
		}

		name := strings.TrimSpace(match[3])
		if name == "" {
			skipped++
			continue
		}

		additions = append(additions, brewSheetAddition{
			Name:   name,
			Amount: amount,
			Unit:   models.NormalizeUnit(match[2]),
		})
	}

	return additions, skipped
}

func persistBrewSheet(ctx context.Context, batchID uint, additions []brewSheetAddition) error {
	return database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, addition := range additions {
			ingredient, _, err := findOrCreateIngredient(ctx, tx, addition.Name, "")
			if err != nil {
				return err
			}
			record := models.BatchIngredient{
				BatchID:      batchID,
				IngredientID: ingredient.ID,
				Amount:       addition.Amount,
				Unit:         addition.Unit,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
