package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/middleware"
)

// parseID reads a positive numeric path parameter. On failure the 400 response is already written.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid path id", map[string]interface{}{
			"param": name,
			"value": c.Param(name),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "잘못된 ID입니다")
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the body. On failure the 400 response is already written.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "요청 형식이 올바르지 않습니다")
		return false
	}
	return true
}

// optionalUint parses a query or form value; empty yields nil.
func optionalUint(value string) (*uint, bool) {
	if value == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil || n == 0 {
		return nil, false
	}
	v := uint(n)
	return &v, true
}

func respondOK(c *gin.Context, payload gin.H) {
	apperrors.Success(c, http.StatusOK, payload)
}
