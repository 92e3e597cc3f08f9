package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/capability"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/invalidation"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/ikkim/shopfront-backend/pkg/metrics"
)

const MaxReviewCommentLength = 2000

// SubmitReviewInput 리뷰 작성 요청
type SubmitReviewInput struct {
	ProductID uint    `json:"product_id" validate:"required"`
	Rating    int     `json:"rating" validate:"min=1,max=5"`
	Comment   *string `json:"comment" validate:"omitempty,max=2000"`
}

type ReviewService interface {
	Submit(ctx context.Context, caller capability.Identity, input SubmitReviewInput) (*model.Review, error)
	Approve(ctx context.Context, caller capability.Identity, reviewID uint) error
	Delete(ctx context.Context, caller capability.Identity, reviewID uint) error
	ListApproved(ctx context.Context, productID uint) ([]model.Review, error)
	ListPending(ctx context.Context, caller capability.Identity) ([]model.Review, error)
	CountPending(ctx context.Context) (int64, error)
}

type reviewService struct {
	provider       *capability.Provider
	reviewRepo     repository.ReviewRepository
	moderationRepo repository.ReviewModerationRepository
	invalidator    *invalidation.Invalidator
	metrics        *metrics.StorefrontMetrics
}

func NewReviewService(
	provider *capability.Provider,
	reviewRepo repository.ReviewRepository,
	moderationRepo repository.ReviewModerationRepository,
	invalidator *invalidation.Invalidator,
	m *metrics.StorefrontMetrics,
) ReviewService {
	return &reviewService{
		provider:       provider,
		reviewRepo:     reviewRepo,
		moderationRepo: moderationRepo,
		invalidator:    invalidator,
		metrics:        m,
	}
}

// Submit stores an unapproved review written by caller.
// Input is validated before the store is touched.
func (s *reviewService) Submit(ctx context.Context, caller capability.Identity, input SubmitReviewInput) (review *model.Review, err error) {
	defer func() { s.metrics.ObserveMutation("review_submit", err) }()

	if caller.IsAnonymous() {
		return nil, apperrors.ErrUnauthenticated
	}
	input.Comment = normalizeComment(input.Comment)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	scope := s.provider.CallerScoped(caller)
	exists, err := s.reviewRepo.ProductExists(ctx, scope, input.ProductID)
	if err != nil {
		return nil, storeFailure(ctx, "Failed to look up product for review", err, map[string]interface{}{
			"product_id": input.ProductID,
		})
	}
	if !exists {
		return nil, fmt.Errorf("%w: product %d", apperrors.ErrNotFound, input.ProductID)
	}

	review = &model.Review{
		ProductID: input.ProductID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}
	if err := s.reviewRepo.Create(ctx, scope, review); err != nil {
		if apperrors.IsUniqueViolation(err) {
			logger.From(ctx).Warn("Duplicate review rejected", map[string]interface{}{
				"user_id":    caller.UserID,
				"product_id": input.ProductID,
			})
			return nil, apperrors.ErrDuplicateReview
		}
		if passThrough(err) {
			return nil, err
		}
		return nil, storeFailure(ctx, "Failed to create review", err, map[string]interface{}{
			"user_id":    caller.UserID,
			"product_id": input.ProductID,
		})
	}

	logger.From(ctx).Info("Review submitted", map[string]interface{}{
		"review_id":  review.ID,
		"user_id":    caller.UserID,
		"product_id": review.ProductID,
		"rating":     review.Rating,
	})
	s.invalidator.Invalidate(ctx, invalidation.ReviewQueue())
	return review, nil
}

// Approve makes a review public. Approving an approved review is a successful no-op.
func (s *reviewService) Approve(ctx context.Context, caller capability.Identity, reviewID uint) (err error) {
	defer func() { s.metrics.ObserveMutation("review_approve", err) }()

	if err := requireAdmin(caller); err != nil {
		return err
	}
	admin := s.provider.Elevated()

	review, err := s.moderationRepo.FindByIDWithProduct(ctx, admin, reviewID)
	if err != nil {
		if apperrors.IsRecordNotFound(err) {
			return fmt.Errorf("%w: review %d", apperrors.ErrNotFound, reviewID)
		}
		return storeFailure(ctx, "Failed to load review", err, map[string]interface{}{
			"review_id": reviewID,
		})
	}
	if review.IsApproved {
		logger.From(ctx).Info("Review already approved", map[string]interface{}{
			"review_id": reviewID,
		})
		return nil
	}

	if _, err := s.moderationRepo.Approve(ctx, admin, reviewID); err != nil {
		return storeFailure(ctx, "Failed to approve review", err, map[string]interface{}{
			"review_id": reviewID,
		})
	}

	targets := []invalidation.Target{invalidation.ReviewQueue()}
	if review.Product != nil {
		targets = append(targets, invalidation.ProductReviews(fmt.Sprint(review.Product.ID)))
	} else {
		// the product may be gone; the listing is the best remaining guess
		targets = append(targets, invalidation.Catalog())
	}
	s.invalidator.Invalidate(ctx, targets...)

	logger.From(ctx).Info("Review approved", map[string]interface{}{
		"review_id":        reviewID,
		"product_id":       review.ProductID,
		"product_resolved": review.Product != nil,
		"moderator_id":     caller.UserID,
	})
	return nil
}

func (s *reviewService) Delete(ctx context.Context, caller capability.Identity, reviewID uint) (err error) {
	defer func() { s.metrics.ObserveMutation("review_delete", err) }()

	if err := requireAdmin(caller); err != nil {
		return err
	}
	if err := s.moderationRepo.Delete(ctx, s.provider.Elevated(), reviewID); err != nil {
		return storeFailure(ctx, "Failed to delete review", err, map[string]interface{}{
			"review_id": reviewID,
		})
	}

	logger.From(ctx).Info("Review deleted", map[string]interface{}{
		"review_id":    reviewID,
		"moderator_id": caller.UserID,
	})
	s.invalidator.Invalidate(ctx, invalidation.ReviewQueue())
	return nil
}

func (s *reviewService) ListApproved(ctx context.Context, productID uint) ([]model.Review, error) {
	reviews, err := s.reviewRepo.ListApproved(ctx, s.provider.CallerScoped(capability.Anonymous()), productID)
	if err != nil {
		return nil, storeFailure(ctx, "Failed to list reviews", err, map[string]interface{}{
			"product_id": productID,
		})
	}
	return reviews, nil
}

func (s *reviewService) ListPending(ctx context.Context, caller capability.Identity) ([]model.Review, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	reviews, err := s.moderationRepo.ListPending(ctx, s.provider.Elevated())
	if err != nil {
		return nil, storeFailure(ctx, "Failed to list pending reviews", err, nil)
	}
	return reviews, nil
}

// CountPending is used by the backlog job, which runs without a caller.
func (s *reviewService) CountPending(ctx context.Context) (int64, error) {
	count, err := s.moderationRepo.CountPending(ctx, s.provider.Elevated())
	if err != nil {
		return 0, storeFailure(ctx, "Failed to count pending reviews", err, nil)
	}
	return count, nil
}

func requireAdmin(caller capability.Identity) error {
	if caller.IsAnonymous() {
		return apperrors.ErrUnauthenticated
	}
	if !caller.IsAdmin() {
		return apperrors.ErrUnauthorized
	}
	return nil
}

func normalizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
