package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/capability"
	"github.com/ikkim/shopfront-backend/internal/db"
	"github.com/ikkim/shopfront-backend/internal/invalidation"
	"github.com/ikkim/shopfront-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type serviceEnv struct {
	db          *gorm.DB
	provider    *capability.Provider
	recorder    *invalidation.Recorder
	invalidator *invalidation.Invalidator
	metrics     *metrics.StorefrontMetrics
	registry    *prometheus.Registry
}

func setupServiceTest(t *testing.T, opts ...capability.Option) *serviceEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	registry := prometheus.NewRegistry()
	m := metrics.NewStorefrontMetrics(registry)
	recorder := &invalidation.Recorder{}
	return &serviceEnv{
		db:          testDB,
		provider:    capability.NewProvider(testDB, opts...),
		recorder:    recorder,
		invalidator: invalidation.NewInvalidator(m, recorder),
		metrics:     m,
		registry:    registry,
	}
}

// countQueries counts every statement gorm sends from now on.
func (e *serviceEnv) countQueries(t *testing.T) *atomic.Int64 {
	t.Helper()
	var n atomic.Int64
	count := func(*gorm.DB) { n.Add(1) }
	cb := e.db.Callback()
	require.NoError(t, cb.Create().Before("gorm:create").Register("test:count_create", count))
	require.NoError(t, cb.Query().Before("gorm:query").Register("test:count_query", count))
	require.NoError(t, cb.Update().Before("gorm:update").Register("test:count_update", count))
	require.NoError(t, cb.Delete().Before("gorm:delete").Register("test:count_delete", count))
	require.NoError(t, cb.Row().Before("gorm:row").Register("test:count_row", count))
	require.NoError(t, cb.Raw().Before("gorm:raw").Register("test:count_raw", count))
	return &n
}

func (e *serviceEnv) createUser(t *testing.T, email string, role model.UserRole) capability.Identity {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hashed"}
	require.NoError(t, e.db.Create(user).Error)
	require.NoError(t, e.db.Create(&model.Profile{UserID: user.ID, Email: email, Role: role}).Error)
	return capability.Identity{UserID: user.ID, Role: string(role)}
}

func (e *serviceEnv) createProduct(t *testing.T, name string) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:          name,
		Slug:          name + "-slug",
		Price:         decimal.NewFromInt(1000),
		StockQuantity: 5,
	}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

func (e *serviceEnv) count(t *testing.T, value interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(value).Count(&n).Error)
	return n
}

// mutationCount reads storefront_mutations_total for one label pair.
func (e *serviceEnv) mutationCount(t *testing.T, operation, outcome string) float64 {
	t.Helper()
	families, err := e.registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "storefront_mutations_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["operation"] == operation && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
