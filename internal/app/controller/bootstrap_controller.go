package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
)

type BootstrapController struct {
	bootstrapService service.BootstrapService
}

func NewBootstrapController(bootstrapService service.BootstrapService) *BootstrapController {
	return &BootstrapController{
		bootstrapService: bootstrapService,
	}
}

// ProvisionAdmin 최초 관리자 계정 생성
// POST /api/v1/bootstrap/admin
func (ctrl *BootstrapController) ProvisionAdmin(c *gin.Context) {
	var req service.ProvisionAdminInput
	if !bindJSON(c, &req) {
		return
	}

	admin, err := ctrl.bootstrapService.ProvisionAdmin(c.Request.Context(), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	apperrors.Success(c, http.StatusCreated, gin.H{
		"userId": admin.UserID,
		"email":  admin.Email,
	})
}
