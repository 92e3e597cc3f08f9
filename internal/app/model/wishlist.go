package model

import (
	"time"
)

// WishlistItem is a (user, product) favorite. Hard-deleted so the unique index
// keeps at most one row per pair.
type WishlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                             // 찜 항목 ID
	UserID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"user_id"`    // 사용자 ID
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"product_id"` // 상품 ID
	CreatedAt time.Time `json:"created_at"`                                                       // 생성 시각

	// Associations (loaded with Preload)
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 상품 정보
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}

// WishlistAction is the outcome reported by a toggle.
type WishlistAction string

const (
	WishlistAdded   WishlistAction = "added"
	WishlistRemoved WishlistAction = "removed"
)
