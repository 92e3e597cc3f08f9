package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/middleware"
)

type ReviewController struct {
	reviewService service.ReviewService
}

func NewReviewController(reviewService service.ReviewService) *ReviewController {
	return &ReviewController{
		reviewService: reviewService,
	}
}

// SubmitReview 리뷰 작성 (승인 대기 상태로 저장)
// POST /api/v1/reviews
func (ctrl *ReviewController) SubmitReview(c *gin.Context) {
	var req service.SubmitReviewInput
	if !bindJSON(c, &req) {
		return
	}

	review, err := ctrl.reviewService.Submit(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	apperrors.Success(c, http.StatusCreated, gin.H{
		"review":  review,
		"message": "리뷰가 등록되었습니다. 관리자 승인 후 공개됩니다",
	})
}

// GetProductReviews 승인된 리뷰 목록
// GET /api/v1/products/:id/reviews
func (ctrl *ReviewController) GetProductReviews(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}

	reviews, err := ctrl.reviewService.ListApproved(c.Request.Context(), productID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"reviews": reviews, "count": len(reviews)})
}

// GetModerationQueue 승인 대기 리뷰 목록
// GET /api/v1/admin/reviews
func (ctrl *ReviewController) GetModerationQueue(c *gin.Context) {
	reviews, err := ctrl.reviewService.ListPending(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"reviews": reviews, "count": len(reviews)})
}

// ApproveReview 리뷰 승인
// POST /api/v1/admin/reviews/:id/approve
func (ctrl *ReviewController) ApproveReview(c *gin.Context) {
	reviewID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.reviewService.Approve(c.Request.Context(), middleware.GetIdentity(c), reviewID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"message": "리뷰가 승인되었습니다"})
}

// DeleteReview 리뷰 삭제
// DELETE /api/v1/admin/reviews/:id
func (ctrl *ReviewController) DeleteReview(c *gin.Context) {
	reviewID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.reviewService.Delete(c.Request.Context(), middleware.GetIdentity(c), reviewID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"message": "리뷰가 삭제되었습니다"})
}
