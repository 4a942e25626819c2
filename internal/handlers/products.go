package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	applog "fermentum/internal/log"
	"fermentum/models"
)

type finishedProductResponse struct {
	ID           uint             `json:"id"`
	BatchID      uint             `json:"batch_id"`
	ProductType  string           `json:"product_type"`
	SerialNumber string           `json:"serial_number"`
	StartDate    string           `json:"start_date"`
	FinishDate   string           `json:"finish_date"`
	Description  string           `json:"description"`
	ABV          float64          `json:"abv"`
	IsShared     bool             `json:"is_shared"`
	Bottles      []bottleResponse `json:"bottles"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type bottleCreateRequest struct {
	Volume      float64 `json:"volume" validate:"required,gt=0"`
	DateBottled string  `json:"date_bottled"`
	Count       int     `json:"count" validate:"omitempty,min=1,max=100"`
}

// FinishedProductResource handles the bottled results of finished batches,
// including their bottles and the community sharing toggle.
func FinishedProductResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "product request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "product request without authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/app/api/products")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method == http.MethodGet {
			listFinishedProducts(w, r, userID)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	segments := strings.Split(path, "/")
	idValue, err := strconv.ParseUint(segments[0], 10, 64)
	if err != nil {
		applog.Debug(r.Context(), "invalid product identifier", "identifier", segments[0], "error", err)
		http.NotFound(w, r)
		return
	}
	productID := uint(idValue)

	if len(segments) > 1 {
		if len(segments) != 2 {
			http.NotFound(w, r)
			return
		}
		switch segments[1] {
		case "bottles":
			switch r.Method {
			case http.MethodGet:
				listProductBottles(w, r, productID, userID)
			case http.MethodPost:
				createProductBottles(w, r, productID, userID)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		case "share":
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			shareFinishedProduct(w, r, productID, userID)
		default:
			http.NotFound(w, r)
		}
		return
	}

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	showFinishedProduct(w, r, productID, userID)
}

func listFinishedProducts(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()
	var products []models.FinishedProduct
	if err := database.WithContext(ctx).
		Preload("Bottles").
		Where("creator_id = ?", userID).
		Order("serial_number asc").
		Find(&products).Error; err != nil {
		applog.Error(ctx, "failed to list products", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load products")
		return
	}

	sharedIDs, err := sharedProductIDs(ctx, userID)
	if err != nil {
		applog.Error(ctx, "failed to load share state for products", "error", err)
	}

	responses := make([]finishedProductResponse, 0, len(products))
	for _, product := range products {
		responses = append(responses, projectFinishedProduct(product, sharedIDs[product.ID]))
	}
	writeJSON(w, http.StatusOK, responses)
}

func showFinishedProduct(w http.ResponseWriter, r *http.Request, productID, userID uint) {
	ctx := r.Context()
	product, err := loadOwnedProduct(ctx, productID, userID, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "product not found or not owned", "id", productID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load product", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load product")
		return
	}

	sharedIDs, err := sharedProductIDs(ctx, userID)
	if err != nil {
		applog.Error(ctx, "failed to load share state for product", "error", err, "id", productID)
	}

	writeJSON(w, http.StatusOK, projectFinishedProduct(*product, sharedIDs[product.ID]))
}

func listProductBottles(w http.ResponseWriter, r *http.Request, productID, userID uint) {
	ctx := r.Context()
	if _, err := loadOwnedProduct(ctx, productID, userID, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "bottle list denied: product not found or not owned", "id", productID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load product for bottle list", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load bottles")
		return
	}

	var bottles []models.Bottle
	if err := database.WithContext(ctx).
		Where("finished_product_id = ?", productID).
		Order("bottle_number asc").
		Find(&bottles).Error; err != nil {
		applog.Error(ctx, "failed to list bottles", "error", err, "product", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load bottles")
		return
	}

	responses := make([]bottleResponse, 0, len(bottles))
	for _, bottle := range bottles {
		responses = append(responses, projectBottle(bottle))
	}
	writeJSON(w, http.StatusOK, responses)
}

func createProductBottles(w http.ResponseWriter, r *http.Request, productID, userID uint) {
	ctx := r.Context()

	var payload bottleCreateRequest
	if err := decodeAndValidate(r, &payload); err != nil {
		applog.Debug(ctx, "invalid bottle payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	count := payload.Count
	if count == 0 {
		count = 1
	}

	dateBottled, err := parseDateField(payload.DateBottled, nowFunc().UTC())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "date_bottled must use the YYYY-MM-DD format")
		return
	}

	product, err := loadOwnedProduct(ctx, productID, userID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "bottle create denied: product not found or not owned", "id", productID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load product for bottling", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to record bottles")
		return
	}

	var bottles []models.Bottle
	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := 0; i < count; i++ {
			number, err := nextBottleNumber(tx, product)
			if err != nil {
				return err
			}
			bottle := models.Bottle{
				FinishedProductID: product.ID,
				BottleNumber:      number,
				Volume:            payload.Volume,
				DateBottled:       dateBottled,
				PublicToken:       uuid.NewString(),
			}
			if err := tx.Create(&bottle).Error; err != nil {
				return err
			}
			bottles = append(bottles, bottle)
		}
		return nil
	})
	if err != nil {
		applog.Error(ctx, "failed to record bottles", "error", err, "product", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to record bottles")
		return
	}

	responses := make([]bottleResponse, 0, len(bottles))
	for _, bottle := range bottles {
		responses = append(responses, projectBottle(bottle))
	}
	writeJSON(w, http.StatusCreated, responses)
}

func shareFinishedProduct(w http.ResponseWriter, r *http.Request, productID, userID uint) {
	ctx := r.Context()
	if _, err := loadOwnedProduct(ctx, productID, userID, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "share denied: product not found or not owned", "id", productID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load product for sharing", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to share product")
		return
	}

	var shared models.SharedProduct
	created := false
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("product_id = ? AND shared_by_id = ?", productID, userID).First(&shared).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		shared = models.SharedProduct{ProductID: productID, SharedByID: userID}
		created = true
		return tx.Create(&shared).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to share product", "error", err, "id", productID)
		writeJSONError(w, http.StatusInternalServerError, "unable to share product")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{
		"id":          shared.ID,
		"product_id":  shared.ProductID,
		"shared_date": shared.SharedDate,
	})
}

// nextBottleNumber appends a two-digit suffix to the product serial, probing
// forward past suffixes already taken.
func nextBottleNumber(tx *gorm.DB, product *models.FinishedProduct) (string, error) {
	var count int64
	if err := tx.Model(&models.Bottle{}).Unscoped().Where("finished_product_id = ?", product.ID).Count(&count).Error; err != nil {
		return "", err
	}

	sequence := count + 1
	for {
		candidate := fmt.Sprintf("%s%02d", product.SerialNumber, sequence)
		var existing int64
		if err := tx.Model(&models.Bottle{}).Unscoped().Where("bottle_number = ?", candidate).Count(&existing).Error; err != nil {
			return "", err
		}
		if existing == 0 {
			return candidate, nil
		}
		sequence++
	}
}

func loadOwnedProduct(ctx context.Context, productID, userID uint, preload bool) (*models.FinishedProduct, error) {
	query := database.WithContext(ctx).Where("id = ? AND creator_id = ?", productID, userID)
	if preload {
		query = query.Preload("Bottles")
	}

	var product models.FinishedProduct
	if err := query.First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// sharedProductIDs reports which of the user's products currently sit on the
// community board.
func sharedProductIDs(ctx context.Context, userID uint) (map[uint]bool, error) {
	var rows []models.SharedProduct
	if err := database.WithContext(ctx).Where("shared_by_id = ?", userID).Find(&rows).Error; err != nil {
		return map[uint]bool{}, err
	}

	ids := make(map[uint]bool, len(rows))
	for _, row := range rows {
		ids[row.ProductID] = true
	}
	return ids, nil
}

func projectFinishedProduct(product models.FinishedProduct, shared bool) finishedProductResponse {
	bottles := make([]bottleResponse, 0, len(product.Bottles))
	for _, bottle := range product.Bottles {
		bottles = append(bottles, projectBottle(bottle))
	}

	return finishedProductResponse{
		ID:           product.ID,
		BatchID:      product.BatchID,
		ProductType:  product.ProductType,
		SerialNumber: product.SerialNumber,
		StartDate:    product.StartDate.Format(batchDateLayout),
		FinishDate:   product.FinishDate.Format(batchDateLayout),
		Description:  product.Description,
		ABV:          product.ABV,
		IsShared:     shared,
		Bottles:      bottles,
		CreatedAt:    product.CreatedAt,
		UpdatedAt:    product.UpdatedAt,
	}
}
