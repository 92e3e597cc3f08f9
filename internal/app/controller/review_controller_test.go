package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	"github.com/ikkim/shopfront-backend/internal/capability"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewRouter(env *controllerEnv, caller capability.Identity) *gin.Engine {
	svc := service.NewReviewService(
		env.provider,
		repository.NewReviewRepository(),
		repository.NewReviewModerationRepository(),
		env.invalidator,
		nil,
	)
	ctrl := NewReviewController(svc)
	router := newRouter(caller)
	router.POST("/reviews", ctrl.SubmitReview)
	router.GET("/products/:id/reviews", ctrl.GetProductReviews)
	router.GET("/admin/reviews", ctrl.GetModerationQueue)
	router.POST("/admin/reviews/:id/approve", ctrl.ApproveReview)
	router.DELETE("/admin/reviews/:id", ctrl.DeleteReview)
	return router
}

func TestReviewController_SubmitAndModerate(t *testing.T) {
	env := setupControllerTest(t)
	alice := env.createUser(t, "alice@example.com", model.RoleUser)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	product := env.createProduct(t, "ring")

	w := doJSON(t, reviewRouter(env, alice), http.MethodPost, "/reviews", map[string]interface{}{
		"product_id": product.ID,
		"rating":     5,
		"comment":    "반짝반짝",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	review := decodeBody(t, w)["review"].(map[string]interface{})
	reviewID := uint(review["id"].(float64))

	// not public until approved
	w = doJSON(t, reviewRouter(env, capability.Anonymous()), http.MethodGet, fmt.Sprintf("/products/%d/reviews", product.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])

	adminRouter := reviewRouter(env, admin)
	w = doJSON(t, adminRouter, http.MethodGet, "/admin/reviews", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	for i := 0; i < 2; i++ {
		w = doJSON(t, adminRouter, http.MethodPost, fmt.Sprintf("/admin/reviews/%d/approve", reviewID), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w = doJSON(t, reviewRouter(env, capability.Anonymous()), http.MethodGet, fmt.Sprintf("/products/%d/reviews", product.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])
}

func TestReviewController_Errors(t *testing.T) {
	env := setupControllerTest(t)
	alice := env.createUser(t, "alice@example.com", model.RoleUser)
	product := env.createProduct(t, "ring")

	w := doJSON(t, reviewRouter(env, alice), http.MethodPost, "/reviews", map[string]interface{}{"product_id": product.ID, "rating": 4})
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name   string
		caller capability.Identity
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"duplicate", alice, http.MethodPost, "/reviews", map[string]interface{}{"product_id": product.ID, "rating": 3}, http.StatusConflict, apperrors.ReviewAlreadyExists},
		{"rating out of range", alice, http.MethodPost, "/reviews", map[string]interface{}{"product_id": product.ID, "rating": 6}, http.StatusBadRequest, apperrors.ValidationInvalidInput},
		{"malformed body", alice, http.MethodPost, "/reviews", "not an object", http.StatusBadRequest, apperrors.ValidationInvalidInput},
		{"anonymous submit", capability.Anonymous(), http.MethodPost, "/reviews", map[string]interface{}{"product_id": product.ID, "rating": 3}, http.StatusUnauthorized, apperrors.AuthUnauthorized},
		{"user approves", alice, http.MethodPost, "/admin/reviews/1/approve", nil, http.StatusUnauthorized, apperrors.AuthzForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, reviewRouter(env, tt.caller), tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeBody(t, w)["error"])
		})
	}
}
