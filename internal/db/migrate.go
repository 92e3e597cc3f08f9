package db

import (
	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Models lists every table owned by this service.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Profile{},
		&model.Category{},
		&model.Brand{},
		&model.Product{},
		&model.WishlistItem{},
		&model.Review{},
		&model.SiteSetting{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB migrates the given connection and seeds the known setting keys.
func MigrateDB(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedSiteSettings(db); err != nil {
		logger.Error("Failed to seed site settings during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// seedSiteSettings creates missing setting keys. Existing values are left alone;
// the settings API never creates keys, so this is the only place they come from.
func seedSiteSettings(db *gorm.DB) error {
	settings := make([]model.SiteSetting, 0, len(model.DefaultSiteSettings))
	for key, value := range model.DefaultSiteSettings {
		settings = append(settings, model.SiteSetting{Key: key, Value: value})
	}

	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&settings)
	if res.Error != nil {
		return res.Error
	}

	logger.Info("Site settings seeded", map[string]interface{}{
		"created": res.RowsAffected,
		"known":   len(settings),
	})
	return nil
}
