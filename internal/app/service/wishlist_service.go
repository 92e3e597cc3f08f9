package service

import (
	"context"
	"fmt"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/capability"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/invalidation"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/ikkim/shopfront-backend/pkg/metrics"
)

type WishlistService interface {
	Toggle(ctx context.Context, caller capability.Identity, productID uint) (model.WishlistAction, error)
	Remove(ctx context.Context, caller capability.Identity, itemID uint) error
	Status(ctx context.Context, caller capability.Identity, productID uint) (bool, error)
	List(ctx context.Context, caller capability.Identity) ([]model.WishlistItem, error)
}

type wishlistService struct {
	provider     *capability.Provider
	wishlistRepo repository.WishlistRepository
	invalidator  *invalidation.Invalidator
	metrics      *metrics.StorefrontMetrics
}

func NewWishlistService(
	provider *capability.Provider,
	wishlistRepo repository.WishlistRepository,
	invalidator *invalidation.Invalidator,
	m *metrics.StorefrontMetrics,
) WishlistService {
	return &wishlistService{
		provider:     provider,
		wishlistRepo: wishlistRepo,
		invalidator:  invalidator,
		metrics:      m,
	}
}

func (s *wishlistService) Toggle(ctx context.Context, caller capability.Identity, productID uint) (action model.WishlistAction, err error) {
	defer func() { s.metrics.ObserveMutation("wishlist_toggle", err) }()

	if caller.IsAnonymous() {
		return "", apperrors.ErrUnauthenticated
	}
	if productID == 0 {
		return "", apperrors.Invalid("product_id", "상품 ID가 필요합니다")
	}

	action, err = s.wishlistRepo.Toggle(ctx, s.provider.CallerScoped(caller), productID)
	if err != nil {
		if apperrors.IsRecordNotFound(err) {
			logger.From(ctx).Warn("Cannot toggle wishlist: product not found", map[string]interface{}{
				"user_id":    caller.UserID,
				"product_id": productID,
			})
			return "", fmt.Errorf("%w: product %d", apperrors.ErrNotFound, productID)
		}
		if passThrough(err) {
			return "", err
		}
		return "", storeFailure(ctx, "Failed to toggle wishlist item", err, map[string]interface{}{
			"user_id":    caller.UserID,
			"product_id": productID,
		})
	}

	logger.From(ctx).Info("Wishlist toggled", map[string]interface{}{
		"user_id":    caller.UserID,
		"product_id": productID,
		"action":     action,
	})
	s.invalidator.Invalidate(ctx, invalidation.Wishlist())
	return action, nil
}

// Remove deletes an entry by its id. An id that does not belong to the caller is NotFound.
func (s *wishlistService) Remove(ctx context.Context, caller capability.Identity, itemID uint) (err error) {
	defer func() { s.metrics.ObserveMutation("wishlist_remove", err) }()

	if caller.IsAnonymous() {
		return apperrors.ErrUnauthenticated
	}

	removed, err := s.wishlistRepo.RemoveByID(ctx, s.provider.CallerScoped(caller), itemID)
	if err != nil {
		if passThrough(err) {
			return err
		}
		return storeFailure(ctx, "Failed to remove wishlist item", err, map[string]interface{}{
			"user_id":          caller.UserID,
			"wishlist_item_id": itemID,
		})
	}
	if !removed {
		logger.From(ctx).Warn("Wishlist item not found for caller", map[string]interface{}{
			"user_id":          caller.UserID,
			"wishlist_item_id": itemID,
		})
		return fmt.Errorf("%w: wishlist item %d", apperrors.ErrNotFound, itemID)
	}

	logger.From(ctx).Info("Wishlist item removed", map[string]interface{}{
		"user_id":          caller.UserID,
		"wishlist_item_id": itemID,
	})
	s.invalidator.Invalidate(ctx, invalidation.Wishlist())
	return nil
}

// Status never fails for anonymous callers: they simply have nothing saved.
func (s *wishlistService) Status(ctx context.Context, caller capability.Identity, productID uint) (bool, error) {
	if caller.IsAnonymous() {
		return false, nil
	}
	exists, err := s.wishlistRepo.Exists(ctx, s.provider.CallerScoped(caller), productID)
	if err != nil {
		return false, storeFailure(ctx, "Failed to check wishlist status", err, map[string]interface{}{
			"user_id":    caller.UserID,
			"product_id": productID,
		})
	}
	return exists, nil
}

func (s *wishlistService) List(ctx context.Context, caller capability.Identity) ([]model.WishlistItem, error) {
	if caller.IsAnonymous() {
		return nil, apperrors.ErrUnauthenticated
	}
	items, err := s.wishlistRepo.List(ctx, s.provider.CallerScoped(caller))
	if err != nil {
		return nil, storeFailure(ctx, "Failed to fetch user wishlist", err, map[string]interface{}{
			"user_id": caller.UserID,
		})
	}
	return items, nil
}
