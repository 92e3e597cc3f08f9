package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/capability"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/invalidation"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/ikkim/shopfront-backend/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// settingsFanOut bounds concurrent key updates in one batch.
const settingsFanOut = 8

type SettingEntry struct {
	Key   string `json:"key" validate:"required,max=100"`
	Value string `json:"value"`
}

type UpdateSettingsInput struct {
	Entries []SettingEntry `json:"entries" validate:"required,min=1,unique=Key,dive"`
}

// SettingResult is the outcome for one key. Error holds an error code, never store detail.
type SettingResult struct {
	Key     string `json:"key"`
	Updated bool   `json:"updated"`
	Error   string `json:"error,omitempty"`
}

type SettingsService interface {
	// UpdateAll applies every entry independently. Entries that succeed stay persisted
	// even when others fail; the returned error is then ErrPartialFailure.
	UpdateAll(ctx context.Context, caller capability.Identity, input UpdateSettingsInput) ([]SettingResult, error)
	List(ctx context.Context) ([]model.SiteSetting, error)
}

type settingsService struct {
	provider    *capability.Provider
	settingRepo repository.SettingRepository
	invalidator *invalidation.Invalidator
	metrics     *metrics.StorefrontMetrics
	clock       Clock
}

func NewSettingsService(
	provider *capability.Provider,
	settingRepo repository.SettingRepository,
	invalidator *invalidation.Invalidator,
	m *metrics.StorefrontMetrics,
	clock Clock,
) SettingsService {
	return &settingsService{
		provider:    provider,
		settingRepo: settingRepo,
		invalidator: invalidator,
		metrics:     m,
		clock:       clock,
	}
}

func (s *settingsService) UpdateAll(ctx context.Context, caller capability.Identity, input UpdateSettingsInput) (results []SettingResult, err error) {
	defer func() { s.metrics.ObserveMutation("settings_update", err) }()

	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	admin := s.provider.Elevated()
	now := s.clock().UTC()
	results = make([]SettingResult, len(input.Entries))

	var g errgroup.Group
	g.SetLimit(settingsFanOut)
	for i, entry := range input.Entries {
		g.Go(func() error {
			results[i] = s.updateOne(ctx, admin, entry, now)
			// never cancel siblings: each key stands alone
			return nil
		})
	}
	_ = g.Wait()

	persisted, failed := 0, 0
	for _, r := range results {
		if r.Updated {
			persisted++
		} else {
			failed++
		}
	}

	if persisted > 0 {
		s.invalidator.Invalidate(ctx, invalidation.Settings())
	}

	fields := map[string]interface{}{
		"updated_by": caller.UserID,
		"persisted":  persisted,
		"failed":     failed,
	}
	if failed > 0 {
		logger.From(ctx).Warn("Settings batch partially failed", fields)
		return results, fmt.Errorf("%w: %d of %d", apperrors.ErrPartialFailure, failed, len(results))
	}
	logger.From(ctx).Info("Settings batch applied", fields)
	return results, nil
}

// updateOne writes one key. Zero rows affected means the key does not exist: it is reported
// as not found rather than silently accepted.
func (s *settingsService) updateOne(ctx context.Context, admin *capability.Elevated, entry SettingEntry, now time.Time) SettingResult {
	rows, err := s.settingRepo.UpdateValue(ctx, admin, entry.Key, entry.Value, now)
	if err != nil {
		logger.From(ctx).Error("Failed to update site setting", err, map[string]interface{}{
			"key": entry.Key,
		})
		return SettingResult{Key: entry.Key, Error: apperrors.InternalDatabaseError}
	}
	if rows == 0 {
		logger.From(ctx).Warn("Site setting key does not exist", map[string]interface{}{
			"key": entry.Key,
		})
		return SettingResult{Key: entry.Key, Error: apperrors.ResourceNotFound}
	}
	return SettingResult{Key: entry.Key, Updated: true}
}

func (s *settingsService) List(ctx context.Context) ([]model.SiteSetting, error) {
	settings, err := s.settingRepo.List(ctx, s.provider.CallerScoped(capability.Anonymous()))
	if err != nil {
		return nil, storeFailure(ctx, "Failed to list site settings", err, nil)
	}
	return settings, nil
}
