package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	Name          string          `gorm:"not null" json:"name"`
	Slug          string          `gorm:"uniqueIndex;not null" json:"slug"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	StockQuantity int             `gorm:"default:0" json:"stock_quantity"`
	ImageURL      string          `json:"image_url"`
	CategoryID    *uint           `gorm:"index" json:"category_id,omitempty"`
	BrandID       *uint           `gorm:"index" json:"brand_id,omitempty"`
	WishlistCount int64           `gorm:"->;-:migration" json:"wishlist_count"` // 목록 조회 시에만 채워짐
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Brand    *Brand    `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

type Category struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"` // 카테고리명
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

type Brand struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"` // 브랜드명
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Brand) TableName() string {
	return "brands"
}
