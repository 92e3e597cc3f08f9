package model

import (
	"time"
)

// Review 상품 리뷰 모델
// Submitted(unapproved) -> Approved, or deleted. Never approved by its author.
type Review struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_reviews_user_product" json:"user_id"`          // 작성자 ID
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_reviews_user_product;index" json:"product_id"` // 상품 ID
	Rating     int       `gorm:"not null" json:"rating"`                                                // 평점 (1-5)
	Comment    *string   `gorm:"type:text" json:"comment,omitempty"`                                    // 리뷰 내용 (선택)
	IsApproved bool      `gorm:"not null;default:false;index" json:"is_approved"`                       // 승인 여부
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 상품 정보
	User    *User    `gorm:"foreignKey:UserID" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}

const (
	MinRating = 1
	MaxRating = 5
)
