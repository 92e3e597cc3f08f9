package repository

import (
	"context"
	"time"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/capability"
	"github.com/ikkim/shopfront-backend/pkg/logger"
)

type SettingRepository interface {
	// UpdateValue writes value to an existing key and reports rows affected. Keys are never created here.
	UpdateValue(ctx context.Context, admin *capability.Elevated, key, value string, at time.Time) (int64, error)
	List(ctx context.Context, reader capability.Reader) ([]model.SiteSetting, error)
}

type settingRepository struct{}

func NewSettingRepository() SettingRepository {
	return &settingRepository{}
}

func (r *settingRepository) UpdateValue(ctx context.Context, admin *capability.Elevated, key, value string, at time.Time) (int64, error) {
	res := admin.DB(ctx).Model(&model.SiteSetting{}).
		Where("key = ?", key).
		UpdateColumns(map[string]interface{}{
			"value":      value,
			"updated_at": at,
		})
	if res.Error != nil {
		logger.From(ctx).Error("Failed to update site setting", res.Error, map[string]interface{}{
			"key": key,
		})
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *settingRepository) List(ctx context.Context, reader capability.Reader) ([]model.SiteSetting, error) {
	var settings []model.SiteSetting
	if err := reader.Read(ctx).Order("key ASC").Find(&settings).Error; err != nil {
		logger.From(ctx).Error("Failed to list site settings", err, nil)
		return nil, err
	}
	return settings, nil
}
