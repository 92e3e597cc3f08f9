package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingRepository_UpdateExistingKey(t *testing.T) {
	testDB, provider := setupRepoTest(t)
	repo := NewSettingRepository()
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	rows, err := repo.UpdateValue(context.Background(), provider.Elevated(), "site_name", "Goldsmith", at)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	var stored model.SiteSetting
	require.NoError(t, testDB.Where("key = ?", "site_name").First(&stored).Error)
	assert.Equal(t, "Goldsmith", stored.Value)
	assert.True(t, stored.UpdatedAt.Equal(at))
}

func TestSettingRepository_UnknownKeyIsNeverCreated(t *testing.T) {
	testDB, provider := setupRepoTest(t)

	rows, err := NewSettingRepository().UpdateValue(context.Background(), provider.Elevated(), "no_such_key", "x", time.Now())
	require.NoError(t, err)
	assert.Zero(t, rows)

	var count int64
	require.NoError(t, testDB.Model(&model.SiteSetting{}).Where("key = ?", "no_such_key").Count(&count).Error)
	assert.Zero(t, count)
}

func TestSettingRepository_ListSeededKeys(t *testing.T) {
	_, provider := setupRepoTest(t)

	settings, err := NewSettingRepository().List(context.Background(), provider.CallerScoped(caller(&model.User{})))
	require.NoError(t, err)
	assert.Len(t, settings, len(model.DefaultSiteSettings))
	for i := 1; i < len(settings); i++ {
		assert.Less(t, settings[i-1].Key, settings[i].Key)
	}
}
