package controller

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/middleware"
)

type SettingsController struct {
	settingsService service.SettingsService
}

func NewSettingsController(settingsService service.SettingsService) *SettingsController {
	return &SettingsController{
		settingsService: settingsService,
	}
}

// GetSettings 사이트 설정 조회
// GET /api/v1/settings
func (ctrl *SettingsController) GetSettings(c *gin.Context) {
	settings, err := ctrl.settingsService.List(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"settings": settings})
}

// UpdateSettings 사이트 설정 일괄 수정
// PUT /api/v1/admin/settings
//
// A partial failure still answers with the per-key results so the admin UI
// can show which keys were saved.
func (ctrl *SettingsController) UpdateSettings(c *gin.Context) {
	var req service.UpdateSettingsInput
	if !bindJSON(c, &req) {
		return
	}

	results, err := ctrl.settingsService.UpdateAll(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrPartialFailure) {
			info := apperrors.Classify(err)
			c.JSON(info.Status, gin.H{
				"success": false,
				"error":   info.Code,
				"message": info.Message,
				"results": results,
			})
			return
		}
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"results": results})
}
