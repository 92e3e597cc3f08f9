package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/pkg/logger"
)

// Clock returns the current time; injected so tests can pin timestamps.
type Clock func() time.Time

// storeFailure logs the detail and returns an ErrStore that is safe to surface.
func storeFailure(ctx context.Context, msg string, err error, fields logger.Fields) error {
	logger.From(ctx).Error(msg, err, fields)
	return fmt.Errorf("%w: %s", apperrors.ErrStore, msg)
}

// passThrough reports whether err already belongs to the taxonomy and must not be wrapped again.
func passThrough(err error) bool {
	return errors.Is(err, apperrors.ErrUnauthenticated) ||
		errors.Is(err, apperrors.ErrUnauthorized) ||
		errors.Is(err, apperrors.ErrValidation) ||
		errors.Is(err, apperrors.ErrNotFound)
}
