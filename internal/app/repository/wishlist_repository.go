package repository

import (
	"context"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/capability"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"gorm.io/gorm"
)

// WishlistRepository only accepts caller-scoped handles: every statement is filtered by the caller.
type WishlistRepository interface {
	Toggle(ctx context.Context, scope *capability.CallerScoped, productID uint) (model.WishlistAction, error)
	RemoveByID(ctx context.Context, scope *capability.CallerScoped, itemID uint) (bool, error)
	Exists(ctx context.Context, scope *capability.CallerScoped, productID uint) (bool, error)
	List(ctx context.Context, scope *capability.CallerScoped) ([]model.WishlistItem, error)
}

type wishlistRepository struct{}

func NewWishlistRepository() WishlistRepository {
	return &wishlistRepository{}
}

// Toggle removes the caller's entry if present, otherwise inserts it, in one transaction.
// Concurrent toggles converge on the unique (user_id, product_id) index: an insert that
// loses the race finds the row present and reports added.
func (r *wishlistRepository) Toggle(ctx context.Context, scope *capability.CallerScoped, productID uint) (model.WishlistAction, error) {
	caller, ok := scope.CurrentCaller()
	if !ok {
		return "", apperrors.ErrUnauthenticated
	}
	log := logger.From(ctx)
	log.Debug("Toggling wishlist item in database", map[string]interface{}{
		"user_id":    caller.UserID,
		"product_id": productID,
	})

	var action model.WishlistAction
	err := scope.Transaction(ctx, func(owned, public *gorm.DB) error {
		res := owned.Where("product_id = ?", productID).Delete(&model.WishlistItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			action = model.WishlistRemoved
			return nil
		}

		var product model.Product
		if err := public.Select("id").First(&product, productID).Error; err != nil {
			return err
		}

		item := model.WishlistItem{UserID: caller.UserID, ProductID: productID}
		// savepoint: a unique violation must not abort the outer transaction on postgres
		err := owned.Transaction(func(sp *gorm.DB) error {
			return sp.Create(&item).Error
		})
		if err != nil && !apperrors.IsUniqueViolation(err) {
			return err
		}
		action = model.WishlistAdded
		return nil
	})
	if err != nil {
		if !apperrors.IsRecordNotFound(err) {
			log.Error("Failed to toggle wishlist item in database", err, map[string]interface{}{
				"user_id":    caller.UserID,
				"product_id": productID,
			})
		}
		return "", err
	}

	log.Debug("Wishlist item toggled in database", map[string]interface{}{
		"user_id":    caller.UserID,
		"product_id": productID,
		"action":     action,
	})
	return action, nil
}

// RemoveByID deletes one of the caller's entries by its own id.
func (r *wishlistRepository) RemoveByID(ctx context.Context, scope *capability.CallerScoped, itemID uint) (bool, error) {
	owned, err := scope.Owned(ctx)
	if err != nil {
		return false, err
	}
	res := owned.Where("id = ?", itemID).Delete(&model.WishlistItem{})
	if res.Error != nil {
		logger.From(ctx).Error("Failed to delete wishlist item by ID from database", res.Error, map[string]interface{}{
			"wishlist_item_id": itemID,
		})
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *wishlistRepository) Exists(ctx context.Context, scope *capability.CallerScoped, productID uint) (bool, error) {
	owned, err := scope.Owned(ctx)
	if err != nil {
		return false, err
	}
	var count int64
	if err := owned.Model(&model.WishlistItem{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		logger.From(ctx).Error("Failed to check wishlist item", err, map[string]interface{}{
			"product_id": productID,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *wishlistRepository) List(ctx context.Context, scope *capability.CallerScoped) ([]model.WishlistItem, error) {
	owned, err := scope.Owned(ctx)
	if err != nil {
		return nil, err
	}

	var items []model.WishlistItem
	err = owned.Preload("Product").
		Order("created_at DESC").
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		logger.From(ctx).Error("Failed to find wishlist items in database", err, nil)
		return nil, err
	}

	logger.From(ctx).Debug("Wishlist items found in database", map[string]interface{}{
		"count": len(items),
	})
	return items, nil
}
