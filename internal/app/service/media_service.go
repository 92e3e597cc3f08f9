package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/ikkim/shopfront-backend/internal/capability"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/storage"
	"github.com/ikkim/shopfront-backend/pkg/imaging"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/ikkim/shopfront-backend/pkg/metrics"
)

// AllowedImageTypes is the ingestion allow-list.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

const tempNamespace = "temp"

// Transformer is the image re-encoder used by ingestion (imaging.Transformer).
type Transformer interface {
	Transform(r io.Reader) ([]byte, error)
}

type IngestInput struct {
	Data         []byte
	DeclaredType string
	ProductID    *uint
}

type IngestResult struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

type MediaOptions struct {
	MaxUploadBytes int64
	SniffContent   bool
	CacheControl   string
}

type MediaService interface {
	Ingest(ctx context.Context, caller capability.Identity, input IngestInput) (*IngestResult, error)
}

type mediaService struct {
	provider    *capability.Provider
	transformer Transformer
	metrics     *metrics.StorefrontMetrics
	opts        MediaOptions
}

func NewMediaService(provider *capability.Provider, transformer Transformer, m *metrics.StorefrontMetrics, opts MediaOptions) MediaService {
	return &mediaService{
		provider:    provider,
		transformer: transformer,
		metrics:     m,
		opts:        opts,
	}
}

// Ingest validates, re-encodes and stores an uploaded image under {product id|temp}/{uuid}.jpg.
// Each step is a hard gate; nothing is stored unless every earlier step passed.
func (s *mediaService) Ingest(ctx context.Context, caller capability.Identity, input IngestInput) (result *IngestResult, err error) {
	defer func() { s.metrics.ObserveMutation("media_ingest", err) }()
	log := logger.From(ctx)

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if len(input.Data) == 0 {
		return nil, apperrors.ErrNoFile
	}
	if s.opts.MaxUploadBytes > 0 && int64(len(input.Data)) > s.opts.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", apperrors.ErrFileTooLarge, len(input.Data))
	}

	declared := normalizeMediaType(input.DeclaredType)
	if !AllowedImageTypes[declared] {
		log.Warn("Upload rejected: declared type not allowed", map[string]interface{}{
			"declared_type": input.DeclaredType,
		})
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedType, input.DeclaredType)
	}
	if s.opts.SniffContent {
		detected := mimetype.Detect(input.Data).String()
		if !AllowedImageTypes[normalizeMediaType(detected)] {
			log.Warn("Upload rejected: content does not match an allowed type", map[string]interface{}{
				"declared_type": declared,
				"detected_type": detected,
			})
			return nil, fmt.Errorf("%w: content is %s", apperrors.ErrUnsupportedType, detected)
		}
	}

	encoded, err := s.transformer.Transform(bytes.NewReader(input.Data))
	if err != nil {
		log.Warn("Upload rejected: transform failed", map[string]interface{}{
			"declared_type": declared,
			"error":         err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTransform, err)
	}

	path := storagePath(input.ProductID)
	objects := s.provider.Elevated().Objects()
	if objects == nil {
		return nil, storeFailure(ctx, "No object storage configured", fmt.Errorf("object storage missing"), nil)
	}
	err = objects.Put(ctx, storage.Object{
		Key:          path,
		Body:         encoded,
		ContentType:  imaging.OutputContentType,
		CacheControl: s.opts.CacheControl,
	})
	if err != nil {
		return nil, storeFailure(ctx, "Failed to store uploaded image", err, map[string]interface{}{
			"path": path,
		})
	}

	s.metrics.ObserveIngestBytes(len(encoded))
	result = &IngestResult{
		URL:         objects.PublicURL(path),
		Path:        path,
		ContentType: imaging.OutputContentType,
		Size:        len(encoded),
	}
	log.Info("Image ingested", map[string]interface{}{
		"path":          path,
		"original_size": len(input.Data),
		"stored_size":   len(encoded),
		"uploaded_by":   caller.UserID,
	})
	return result, nil
}

func storagePath(productID *uint) string {
	namespace := tempNamespace
	if productID != nil && *productID != 0 {
		namespace = fmt.Sprint(*productID)
	}
	return namespace + "/" + uuid.NewString() + imaging.OutputExtension
}

// normalizeMediaType drops parameters and case: "Image/PNG; charset=x" -> "image/png".
func normalizeMediaType(value string) string {
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(value))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return mediaType
}
