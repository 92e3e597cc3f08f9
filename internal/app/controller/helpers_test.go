package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/capability"
	"github.com/ikkim/shopfront-backend/internal/db"
	"github.com/ikkim/shopfront-backend/internal/invalidation"
	"github.com/ikkim/shopfront-backend/internal/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type controllerEnv struct {
	db          *gorm.DB
	provider    *capability.Provider
	recorder    *invalidation.Recorder
	invalidator *invalidation.Invalidator
}

func setupControllerTest(t *testing.T, opts ...capability.Option) *controllerEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	recorder := &invalidation.Recorder{}
	return &controllerEnv{
		db:          testDB,
		provider:    capability.NewProvider(testDB, opts...),
		recorder:    recorder,
		invalidator: invalidation.NewInvalidator(nil, recorder),
	}
}

// router injects caller as the authenticated identity, like the auth middleware would.
func newRouter(caller capability.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if !caller.IsAnonymous() {
			c.Set(middleware.IdentityKey, caller)
		}
		c.Next()
	})
	return router
}

func (e *controllerEnv) createUser(t *testing.T, email string, role model.UserRole) capability.Identity {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hashed"}
	require.NoError(t, e.db.Create(user).Error)
	require.NoError(t, e.db.Create(&model.Profile{UserID: user.ID, Email: email, Role: role}).Error)
	return capability.Identity{UserID: user.ID, Role: string(role)}
}

func (e *controllerEnv) createProduct(t *testing.T, name string) *model.Product {
	t.Helper()
	product := &model.Product{Name: name, Slug: name + "-slug", Price: decimal.NewFromInt(1000)}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
