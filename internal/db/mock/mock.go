package mock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fermentum/internal/db"
	applog "fermentum/internal/log"
	"fermentum/models"
)

// New returns an in-memory sqlite database seeded with representative cellar data.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	gdb, err := gorm.Open(sqlite.Open("file:fermentum-mock?mode=memory&cache=shared"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(gdb); err != nil {
		return nil, err
	}

	if err := seed(ctx, gdb); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return gdb, nil
}

func seed(ctx context.Context, gdb *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte("cellar"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	brewer := &models.User{
		Name:         "Maren Holt",
		Email:        "maren@fermentum.app",
		PasswordHash: string(password),
	}
	neighbor := &models.User{
		Name:         "Jonas Berg",
		Email:        "jonas@fermentum.app",
		PasswordHash: string(password),
	}
	for _, user := range []*models.User{brewer, neighbor} {
		if err := gdb.WithContext(ctx).Create(user).Error; err != nil {
			return err
		}
	}

	honey := models.Ingredient{Name: "Wildflower Honey", Description: "Raw honey from a local apiary, the backbone of every mead."}
	grapes := models.Ingredient{Name: "Muscat Grapes", Description: "Aromatic white grapes pressed the same day they are picked."}
	yeast := models.Ingredient{Name: "Lalvin D47", Description: "White wine yeast tolerant to 14% ABV, clean fermenter."}
	for _, ingredient := range []*models.Ingredient{&honey, &grapes, &yeast} {
		if err := gdb.WithContext(ctx).Create(ingredient).Error; err != nil {
			return err
		}
	}

	started := time.Date(2025, time.September, 14, 0, 0, 0, 0, time.UTC)
	finalGravity := 0.998
	cellarBatch := models.Batch{
		BatchNumber:  "1-0001",
		StartDate:    started,
		StartGravity: 1.102,
		FinalGravity: &finalGravity,
		CreatorID:    brewer.ID,
		IsFinished:   true,
	}
	activeBatch := models.Batch{
		BatchNumber:  "1-0002",
		StartDate:    started.AddDate(0, 1, 3),
		StartGravity: 1.088,
		CreatorID:    brewer.ID,
	}
	for _, batch := range []*models.Batch{&cellarBatch, &activeBatch} {
		if err := gdb.WithContext(ctx).Create(batch).Error; err != nil {
			return err
		}
	}

	additions := []models.BatchIngredient{
		{BatchID: cellarBatch.ID, IngredientID: honey.ID, Amount: 6, Unit: models.UnitKilogram},
		{BatchID: cellarBatch.ID, IngredientID: yeast.ID, Amount: 10, Unit: models.UnitGram},
		{BatchID: activeBatch.ID, IngredientID: grapes.ID, Amount: 12, Unit: models.UnitKilogram},
	}
	for _, addition := range additions {
		additionCopy := addition
		if err := gdb.WithContext(ctx).Create(&additionCopy).Error; err != nil {
			return err
		}
	}

	entries := []models.ProcessEntry{
		{BatchID: cellarBatch.ID, Date: started, Description: "Dissolved honey, pitched yeast at 19C."},
		{BatchID: cellarBatch.ID, Date: started.AddDate(0, 0, 21), Description: "First racking off the gross lees."},
		{BatchID: activeBatch.ID, Date: started.AddDate(0, 1, 3), Description: "Crushed and pressed, must into the fermenter."},
	}
	for _, entry := range entries {
		entryCopy := entry
		if err := gdb.WithContext(ctx).Create(&entryCopy).Error; err != nil {
			return err
		}
	}

	product := models.FinishedProduct{
		BatchID:      cellarBatch.ID,
		CreatorID:    brewer.ID,
		ProductType:  models.ProductTypeMead,
		SerialNumber: "202509MEAD0001",
		StartDate:    started,
		FinishDate:   started.AddDate(0, 4, 0),
		Description:  "Dry wildflower mead, bright and floral.",
		ABV:          13.65,
	}
	if err := gdb.WithContext(ctx).Create(&product).Error; err != nil {
		return err
	}

	bottles := []models.Bottle{
		{FinishedProductID: product.ID, BottleNumber: product.SerialNumber + "01", Volume: 0.75, DateBottled: product.FinishDate, PublicToken: uuid.NewString()},
		{FinishedProductID: product.ID, BottleNumber: product.SerialNumber + "02", Volume: 0.75, DateBottled: product.FinishDate, PublicToken: uuid.NewString()},
	}
	for _, bottle := range bottles {
		bottleCopy := bottle
		if err := gdb.WithContext(ctx).Create(&bottleCopy).Error; err != nil {
			return err
		}
	}

	shared := models.SharedProduct{ProductID: product.ID, SharedByID: brewer.ID}
	if err := gdb.WithContext(ctx).Create(&shared).Error; err != nil {
		return err
	}

	like := models.ProductLike{UserID: neighbor.ID, SharedProductID: shared.ID}
	if err := gdb.WithContext(ctx).Create(&like).Error; err != nil {
		return err
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
