package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/middleware"
)

type WishlistController struct {
	wishlistService service.WishlistService
}

func NewWishlistController(wishlistService service.WishlistService) *WishlistController {
	return &WishlistController{
		wishlistService: wishlistService,
	}
}

type ToggleWishlistRequest struct {
	ProductID uint `json:"product_id"`
}

// GetWishlist returns the caller's wishlist
// GET /api/v1/wishlist
func (ctrl *WishlistController) GetWishlist(c *gin.Context) {
	items, err := ctrl.wishlistService.List(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{
		"wishlist_items": items,
		"count":          len(items),
	})
}

// ToggleWishlist adds the product when absent and removes it when present
// POST /api/v1/wishlist/toggle
func (ctrl *WishlistController) ToggleWishlist(c *gin.Context) {
	var req ToggleWishlistRequest
	if !bindJSON(c, &req) {
		return
	}

	action, err := ctrl.wishlistService.Toggle(c.Request.Context(), middleware.GetIdentity(c), req.ProductID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"action": action})
}

// RemoveFromWishlist deletes one of the caller's entries by id
// DELETE /api/v1/wishlist/:id
func (ctrl *WishlistController) RemoveFromWishlist(c *gin.Context) {
	itemID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.wishlistService.Remove(c.Request.Context(), middleware.GetIdentity(c), itemID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"message": "찜 목록에서 삭제되었습니다"})
}

// GetWishlistStatus reports whether the product is saved; guests always get false
// GET /api/v1/wishlist/status/:id
func (ctrl *WishlistController) GetWishlistStatus(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}

	saved, err := ctrl.wishlistService.Status(c.Request.Context(), middleware.GetIdentity(c), productID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"product_id": productID, "is_wishlisted": saved})
}
