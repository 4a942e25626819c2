package models

import (
	"time"
)

// SharedProduct makes a finished product visible to every authenticated user.
// The (product, sharer) pair is unique so sharing is idempotent. Retracting a
// share removes the row and its likes outright; there is no soft delete here
// so a later re-share does not collide with the unique index.
type SharedProduct struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	ProductID  uint             `gorm:"not null;uniqueIndex:idx_product_sharer" json:"product_id"`
	Product    *FinishedProduct `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	SharedByID uint             `gorm:"not null;uniqueIndex:idx_product_sharer" json:"shared_by_id"`
	SharedBy   *User            `gorm:"foreignKey:SharedByID" json:"shared_by,omitempty"`
	SharedDate time.Time        `gorm:"autoCreateTime" json:"shared_date"`
	Likes      []ProductLike    `gorm:"foreignKey:SharedProductID" json:"likes"`
}

// ProductLike is one user's endorsement of a shared product. The composite
// unique index guarantees at most one like per user per shared product even
// under concurrent requests.
type ProductLike struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;uniqueIndex:idx_user_shared_product" json:"user_id"`
	SharedProductID uint      `gorm:"not null;uniqueIndex:idx_user_shared_product" json:"shared_product_id"`
	User            *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
