package mock

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"fermentum/models"
)

func TestNewSeedsExpectedRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := New(ctx)
	if err != nil {
		t.Fatalf("mock database initialization failed: %v", err)
	}

	var batches []models.Batch
	if err := db.WithContext(ctx).Find(&batches).Error; err != nil {
		t.Fatalf("query batches: %v", err)
	}
	if len(batches) == 0 {
		t.Fatal("expected seeded batches")
	}

	var product models.FinishedProduct
	if err := db.WithContext(ctx).Preload("Bottles").First(&product).Error; err != nil {
		t.Fatalf("query finished product: %v", err)
	}
	if len(product.Bottles) == 0 {
		t.Fatal("expected seeded bottles on the finished product")
	}
	for _, bottle := range product.Bottles {
		if bottle.PublicToken == "" {
			t.Fatal("expected every seeded bottle to carry a public token")
		}
	}

	var shared models.SharedProduct
	if err := db.WithContext(ctx).Preload("Likes").First(&shared).Error; err != nil {
		t.Fatalf("query shared product: %v", err)
	}
	if len(shared.Likes) != 1 {
		t.Fatalf("expected exactly one seeded like, got %d", len(shared.Likes))
	}

	var user models.User
	if err := db.WithContext(ctx).First(&user).Error; err != nil {
		t.Fatalf("query user: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("cellar")); err != nil {
		t.Fatalf("unexpected password hash: %v", err)
	}
}
