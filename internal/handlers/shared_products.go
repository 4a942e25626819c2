package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	applog "fermentum/internal/log"
	"fermentum/internal/views/pages"
	"fermentum/models"
)

// topSharedCount is how many community listings the board highlights.
const topSharedCount = 10

type sharedProductResponse struct {
	ID           uint      `json:"id"`
	ProductID    uint      `json:"product_id"`
	SerialNumber string    `json:"serial_number"`
	ProductType  string    `json:"product_type"`
	ABV          float64   `json:"abv"`
	Description  string    `json:"description"`
	SharedByID   uint      `json:"shared_by_id"`
	SharedBy     string    `json:"shared_by"`
	SharedDate   time.Time `json:"shared_date"`
	LikesCount   int       `json:"likes_count"`
	HasLiked     bool      `json:"has_liked"`
	Own          bool      `json:"own"`
}

type sharedBoardResponse struct {
	Top  []sharedProductResponse `json:"top"`
	Rest []sharedProductResponse `json:"rest"`
}

type likeCountResponse struct {
	SharedProductID uint `json:"shared_product_id"`
	LikesCount      int  `json:"likes_count"`
	HasLiked        bool `json:"has_liked"`
}

// SharedProductResource handles the community board: listings other brewers
// have shared, plus the like and unshare actions on them.
func SharedProductResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "shared product request without database")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(r.Context(), "shared product request without authenticated user")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/app/api/shared-products")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method == http.MethodGet {
			listSharedProducts(w, r, userID)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	segments := strings.Split(path, "/")
	idValue, err := strconv.ParseUint(segments[0], 10, 64)
	if err != nil {
		applog.Debug(r.Context(), "invalid shared product identifier", "identifier", segments[0], "error", err)
		http.NotFound(w, r)
		return
	}
	sharedID := uint(idValue)

	if len(segments) > 1 {
		if len(segments) != 2 || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		switch segments[1] {
		case "like":
			likeSharedProduct(w, r, sharedID, userID)
		case "unlike":
			unlikeSharedProduct(w, r, sharedID, userID)
		default:
			http.NotFound(w, r)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		showSharedProduct(w, r, sharedID, userID)
	case http.MethodDelete:
		unshareProduct(w, r, sharedID, userID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listSharedProducts(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()
	top, rest, err := loadSharedListings(r, userID)
	if err != nil {
		applog.Error(ctx, "failed to list shared products", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load shared products")
		return
	}

	board := sharedBoardResponse{
		Top:  make([]sharedProductResponse, 0, len(top)),
		Rest: make([]sharedProductResponse, 0, len(rest)),
	}
	for _, listing := range top {
		board.Top = append(board.Top, projectSharedListing(listing))
	}
	for _, listing := range rest {
		board.Rest = append(board.Rest, projectSharedListing(listing))
	}
	writeJSON(w, http.StatusOK, board)
}

func showSharedProduct(w http.ResponseWriter, r *http.Request, sharedID, userID uint) {
	ctx := r.Context()
	shared, err := loadSharedProduct(ctx, sharedID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "shared product not found", "id", sharedID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load shared product", "error", err, "id", sharedID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load shared product")
		return
	}

	response := projectSharedListing(newSharedListing(*shared, userID))
	response.Own = shared.SharedByID == userID
	writeJSON(w, http.StatusOK, response)
}

func unshareProduct(w http.ResponseWriter, r *http.Request, sharedID, userID uint) {
	ctx := r.Context()

	var shared models.SharedProduct
	if err := database.WithContext(ctx).Where("id = ? AND shared_by_id = ?", sharedID, userID).First(&shared).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "unshare denied: listing not found or not owned", "id", sharedID, "user", userID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load shared product for unshare", "error", err, "id", sharedID)
		writeJSONError(w, http.StatusInternalServerError, "unable to retract share")
		return
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shared_product_id = ?", shared.ID).Delete(&models.ProductLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&shared).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to retract share", "error", err, "id", sharedID)
		writeJSONError(w, http.StatusInternalServerError, "unable to retract share")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func likeSharedProduct(w http.ResponseWriter, r *http.Request, sharedID, userID uint) {
	ctx := r.Context()

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shared models.SharedProduct
		if err := tx.First(&shared, sharedID).Error; err != nil {
			return err
		}

		var existing models.ProductLike
		err := tx.Where("user_id = ? AND shared_product_id = ?", userID, sharedID).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&models.ProductLike{UserID: userID, SharedProductID: sharedID}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "like failed: shared product not found", "id", sharedID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to like shared product", "error", err, "id", sharedID)
		writeJSONError(w, http.StatusInternalServerError, "unable to like shared product")
		return
	}

	respondWithLikeCount(w, r, sharedID, userID)
}

func unlikeSharedProduct(w http.ResponseWriter, r *http.Request, sharedID, userID uint) {
	ctx := r.Context()

	var shared models.SharedProduct
	if err := database.WithContext(ctx).First(&shared, sharedID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			applog.Debug(ctx, "unlike failed: shared product not found", "id", sharedID)
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load shared product for unlike", "error", err, "id", sharedID)
		writeJSONError(w, http.StatusInternalServerError, "unable to unlike shared product")
		return
	}

	// removing a like that was never recorded is a no-op
	if err := database.WithContext(ctx).Where("user_id = ? AND shared_product_id = ?", userID, sharedID).Delete(&models.ProductLike{}).Error; err != nil {
		applog.Error(ctx, "failed to unlike shared product", "error", err, "id", sharedID)
		writeJSONError(w, http.StatusInternalServerError, "unable to unlike shared product")
		return
	}

	respondWithLikeCount(w, r, sharedID, userID)
}

func respondWithLikeCount(w http.ResponseWriter, r *http.Request, sharedID, userID uint) {
	ctx := r.Context()

	var count int64
	if err := database.WithContext(ctx).Model(&models.ProductLike{}).Where("shared_product_id = ?", sharedID).Count(&count).Error; err != nil {
		applog.Error(ctx, "failed to count likes", "error", err, "id", sharedID)
		writeJSONError(w, http.StatusInternalServerError, "unable to count likes")
		return
	}

	var liked int64
	if err := database.WithContext(ctx).Model(&models.ProductLike{}).Where("shared_product_id = ? AND user_id = ?", sharedID, userID).Count(&liked).Error; err != nil {
		applog.Error(ctx, "failed to check like state", "error", err, "id", sharedID)
		writeJSONError(w, http.StatusInternalServerError, "unable to count likes")
		return
	}

	if isHTMX(r) {
		snapshot := buildWorkspaceSnapshot(r)
		renderComponent(w, r, pages.SharedBoard(snapshot))
		return
	}

	writeJSON(w, http.StatusOK, likeCountResponse{
		SharedProductID: sharedID,
		LikesCount:      int(count),
		HasLiked:        liked > 0,
	})
}

// loadSharedListings returns the community board for a user: listings by
// other brewers split into the ten most liked and the remainder.
func loadSharedListings(r *http.Request, userID uint) ([]pages.SharedListing, []pages.SharedListing, error) {
	ctx := r.Context()

	var rows []models.SharedProduct
	if err := database.WithContext(ctx).
		Preload("Product").
		Preload("SharedBy").
		Preload("Likes").
		Where("shared_by_id <> ?", userID).
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	listings := make([]pages.SharedListing, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, newSharedListing(row, userID))
	}

	sort.SliceStable(listings, func(i, j int) bool {
		if listings[i].LikesCount != listings[j].LikesCount {
			return listings[i].LikesCount > listings[j].LikesCount
		}
		return listings[i].Shared.SharedDate.After(listings[j].Shared.SharedDate)
	})

	if len(listings) <= topSharedCount {
		return listings, nil, nil
	}
	return listings[:topSharedCount], listings[topSharedCount:], nil
}

func loadSharedProduct(ctx context.Context, sharedID uint) (*models.SharedProduct, error) {
	var shared models.SharedProduct
	if err := database.WithContext(ctx).
		Preload("Product").
		Preload("SharedBy").
		Preload("Likes").
		First(&shared, sharedID).Error; err != nil {
		return nil, err
	}
	return &shared, nil
}

func newSharedListing(shared models.SharedProduct, userID uint) pages.SharedListing {
	hasLiked := false
	for _, like := range shared.Likes {
		if like.UserID == userID {
			hasLiked = true
			break
		}
	}
	return pages.SharedListing{
		Shared:     shared,
		LikesCount: len(shared.Likes),
		HasLiked:   hasLiked,
	}
}

func projectSharedListing(listing pages.SharedListing) sharedProductResponse {
	response := sharedProductResponse{
		ID:         listing.Shared.ID,
		ProductID:  listing.Shared.ProductID,
		SharedByID: listing.Shared.SharedByID,
		SharedDate: listing.Shared.SharedDate,
		LikesCount: listing.LikesCount,
		HasLiked:   listing.HasLiked,
	}
	if listing.Shared.Product != nil {
		response.SerialNumber = listing.Shared.Product.SerialNumber
		response.ProductType = listing.Shared.Product.ProductType
		response.ABV = listing.Shared.Product.ABV
		response.Description = listing.Shared.Product.Description
	}
	if listing.Shared.SharedBy != nil {
		response.SharedBy = listing.Shared.SharedBy.Name
	}
	return response
}
