package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/middleware"
)

// multipartOverhead is the slack allowed for boundaries and the other form fields.
const multipartOverhead = 1 << 20

type UploadController struct {
	mediaService   service.MediaService
	maxUploadBytes int64
}

func NewUploadController(mediaService service.MediaService, maxUploadBytes int64) *UploadController {
	return &UploadController{
		mediaService:   mediaService,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadImage ingests one image (multipart field "file", optional "product_id")
// POST /api/v1/admin/uploads
func (ctrl *UploadController) UploadImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if ctrl.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ctrl.maxUploadBytes+multipartOverhead)
	}

	productID, ok := optionalUint(c.PostForm("product_id"))
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "잘못된 상품 ID입니다")
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apperrors.Respond(c, apperrors.ErrFileTooLarge)
			return
		}
		log.Warn("Upload without file", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.Respond(c, apperrors.ErrNoFile)
		return
	}

	file, err := header.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", err, nil)
		apperrors.Respond(c, apperrors.ErrNoFile)
		return
	}
	defer file.Close()

	reader := io.Reader(file)
	if ctrl.maxUploadBytes > 0 {
		reader = io.LimitReader(file, ctrl.maxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		log.Error("Failed to read uploaded file", err, nil)
		apperrors.Respond(c, fmt.Errorf("%w: read upload", apperrors.ErrNoFile))
		return
	}

	result, err := ctrl.mediaService.Ingest(c.Request.Context(), middleware.GetIdentity(c), service.IngestInput{
		Data:         data,
		DeclaredType: header.Header.Get("Content-Type"),
		ProductID:    productID,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	apperrors.Success(c, http.StatusCreated, gin.H{
		"url":  result.URL,
		"path": result.Path,
	})
}
