package repository

import (
	"context"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/capability"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"gorm.io/gorm"
)

// ReviewRepository is the self-service side: reviews are written as the caller.
type ReviewRepository interface {
	Create(ctx context.Context, scope *capability.CallerScoped, review *model.Review) error
	ListApproved(ctx context.Context, reader capability.Reader, productID uint) ([]model.Review, error)
	ProductExists(ctx context.Context, reader capability.Reader, productID uint) (bool, error)
}

// ReviewModerationRepository needs the elevated capability: it reads and writes any user's review.
type ReviewModerationRepository interface {
	FindByIDWithProduct(ctx context.Context, admin *capability.Elevated, id uint) (*model.Review, error)
	Approve(ctx context.Context, admin *capability.Elevated, id uint) (int64, error)
	Delete(ctx context.Context, admin *capability.Elevated, id uint) error
	ListPending(ctx context.Context, admin *capability.Elevated) ([]model.Review, error)
	CountPending(ctx context.Context, admin *capability.Elevated) (int64, error)
}

type reviewRepository struct{}

func NewReviewRepository() ReviewRepository {
	return &reviewRepository{}
}

// Create inserts the review as unapproved. The author is always the caller.
func (r *reviewRepository) Create(ctx context.Context, scope *capability.CallerScoped, review *model.Review) error {
	caller, ok := scope.CurrentCaller()
	if !ok {
		return apperrors.ErrUnauthenticated
	}
	owned, err := scope.Owned(ctx)
	if err != nil {
		return err
	}
	review.UserID = caller.UserID
	review.IsApproved = false

	logger.From(ctx).Debug("Creating review in database", map[string]interface{}{
		"user_id":    review.UserID,
		"product_id": review.ProductID,
	})
	if err := owned.Create(review).Error; err != nil {
		return err
	}

	logger.From(ctx).Debug("Review created in database", map[string]interface{}{
		"review_id": review.ID,
	})
	return nil
}

func (r *reviewRepository) ListApproved(ctx context.Context, reader capability.Reader, productID uint) ([]model.Review, error) {
	var reviews []model.Review
	err := reader.Read(ctx).
		Where("product_id = ? AND is_approved = ?", productID, true).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		logger.From(ctx).Error("Failed to list approved reviews", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) ProductExists(ctx context.Context, reader capability.Reader, productID uint) (bool, error) {
	var count int64
	if err := reader.Read(ctx).Model(&model.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type reviewModerationRepository struct{}

func NewReviewModerationRepository() ReviewModerationRepository {
	return &reviewModerationRepository{}
}

// FindByIDWithProduct loads the review and its product. Product is nil when the product is gone.
func (r *reviewModerationRepository) FindByIDWithProduct(ctx context.Context, admin *capability.Elevated, id uint) (*model.Review, error) {
	var review model.Review
	if err := admin.DB(ctx).Preload("Product").First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// Approve flips is_approved and reports how many rows changed.
func (r *reviewModerationRepository) Approve(ctx context.Context, admin *capability.Elevated, id uint) (int64, error) {
	res := admin.DB(ctx).Model(&model.Review{}).
		Where("id = ?", id).
		Update("is_approved", true)
	if res.Error != nil {
		logger.From(ctx).Error("Failed to approve review", res.Error, map[string]interface{}{
			"review_id": id,
		})
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Delete removes the review unconditionally; deleting a missing id is not an error.
func (r *reviewModerationRepository) Delete(ctx context.Context, admin *capability.Elevated, id uint) error {
	if err := admin.DB(ctx).Where("id = ?", id).Delete(&model.Review{}).Error; err != nil {
		logger.From(ctx).Error("Failed to delete review", err, map[string]interface{}{
			"review_id": id,
		})
		return err
	}
	return nil
}

// ListPending is the moderation queue, oldest first.
func (r *reviewModerationRepository) ListPending(ctx context.Context, admin *capability.Elevated) ([]model.Review, error) {
	var reviews []model.Review
	err := admin.DB(ctx).
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("is_approved = ?", false).
		Order("created_at ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewModerationRepository) CountPending(ctx context.Context, admin *capability.Elevated) (int64, error) {
	var count int64
	err := admin.DB(ctx).Model(&model.Review{}).Where("is_approved = ?", false).Count(&count).Error
	return count, err
}
