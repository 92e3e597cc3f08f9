package repository

import (
	"testing"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/capability"
	"github.com/ikkim/shopfront-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRepoTest(t *testing.T) (*gorm.DB, *capability.Provider) {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB, capability.NewProvider(testDB)
}

func createUser(t *testing.T, testDB *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hashed"}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func createProduct(t *testing.T, testDB *gorm.DB, name string, price int64) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:          name,
		Slug:          name + "-slug",
		Price:         decimal.NewFromInt(price),
		StockQuantity: 10,
	}
	require.NoError(t, testDB.Create(product).Error)
	return product
}

func caller(u *model.User) capability.Identity {
	return capability.Identity{UserID: u.ID, Role: string(model.RoleUser)}
}
