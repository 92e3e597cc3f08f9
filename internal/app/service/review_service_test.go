package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/capability"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupReviewServiceTest(t *testing.T) (*serviceEnv, ReviewService) {
	env := setupServiceTest(t)
	svc := NewReviewService(
		env.provider,
		repository.NewReviewRepository(),
		repository.NewReviewModerationRepository(),
		env.invalidator,
		env.metrics,
	)
	return env, svc
}

func strPtr(s string) *string { return &s }

func TestReviewService_SubmitDuplicate(t *testing.T) {
	env, svc := setupReviewServiceTest(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com", model.RoleUser)
	product := env.createProduct(t, "ring")

	review, err := svc.Submit(ctx, alice, SubmitReviewInput{ProductID: product.ID, Rating: 5, Comment: strPtr("  좋아요  ")})
	require.NoError(t, err)
	assert.False(t, review.IsApproved)
	require.NotNil(t, review.Comment)
	assert.Equal(t, "좋아요", *review.Comment)
	assert.Equal(t, []string{"/admin/reviews"}, env.recorder.Paths())

	_, err = svc.Submit(ctx, alice, SubmitReviewInput{ProductID: product.ID, Rating: 3})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateReview)
	assert.Equal(t, int64(1), env.count(t, &model.Review{}))
	assert.Equal(t, 1.0, env.mutationCount(t, "review_submit", "failure"))
}

func TestReviewService_SubmitRejectedBeforeStore(t *testing.T) {
	env, svc := setupReviewServiceTest(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com", model.RoleUser)
	queries := env.countQueries(t)

	tests := []struct {
		name    string
		caller  capability.Identity
		input   SubmitReviewInput
		wantErr error
	}{
		{"rating zero", alice, SubmitReviewInput{ProductID: 1, Rating: 0}, apperrors.ErrValidation},
		{"rating six", alice, SubmitReviewInput{ProductID: 1, Rating: 6}, apperrors.ErrValidation},
		{"missing product", alice, SubmitReviewInput{Rating: 4}, apperrors.ErrValidation},
		{"comment too long", alice, SubmitReviewInput{ProductID: 1, Rating: 4, Comment: strPtr(strings.Repeat("가", MaxReviewCommentLength+1))}, apperrors.ErrValidation},
		{"anonymous", capability.Anonymous(), SubmitReviewInput{ProductID: 1, Rating: 4}, apperrors.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tt.caller, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, int64(0), queries.Load())
}

func TestReviewService_SubmitUnknownProduct(t *testing.T) {
	env, svc := setupReviewServiceTest(t)
	alice := env.createUser(t, "alice@example.com", model.RoleUser)

	_, err := svc.Submit(context.Background(), alice, SubmitReviewInput{ProductID: 404, Rating: 4})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, int64(0), env.count(t, &model.Review{}))
}

func TestReviewService_ApproveIsMonotonic(t *testing.T) {
	env, svc := setupReviewServiceTest(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com", model.RoleUser)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	product := env.createProduct(t, "ring")

	review, err := svc.Submit(ctx, alice, SubmitReviewInput{ProductID: product.ID, Rating: 4})
	require.NoError(t, err)
	env.recorder.Reset()

	require.NoError(t, svc.Approve(ctx, admin, review.ID))
	assert.Equal(t, []string{"/admin/reviews", fmt.Sprintf("/products/%d", product.ID)}, env.recorder.Paths())

	env.recorder.Reset()
	require.NoError(t, svc.Approve(ctx, admin, review.ID))
	assert.Empty(t, env.recorder.Paths())

	var stored model.Review
	require.NoError(t, env.db.First(&stored, review.ID).Error)
	assert.True(t, stored.IsApproved)

	approved, err := svc.ListApproved(ctx, product.ID)
	require.NoError(t, err)
	assert.Len(t, approved, 1)

	pending, err := svc.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)
}

func TestReviewService_ApproveFallsBackToCatalog(t *testing.T) {
	env, svc := setupReviewServiceTest(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com", model.RoleUser)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	product := env.createProduct(t, "ring")

	review, err := svc.Submit(ctx, alice, SubmitReviewInput{ProductID: product.ID, Rating: 2})
	require.NoError(t, err)
	require.NoError(t, env.db.Delete(&model.Product{}, product.ID).Error)
	env.recorder.Reset()

	require.NoError(t, svc.Approve(ctx, admin, review.ID))
	assert.Equal(t, []string{"/admin/reviews", "/products"}, env.recorder.Paths())
}

func TestReviewService_ModerationRequiresAdmin(t *testing.T) {
	env, svc := setupReviewServiceTest(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com", model.RoleUser)
	product := env.createProduct(t, "ring")

	review, err := svc.Submit(ctx, alice, SubmitReviewInput{ProductID: product.ID, Rating: 5})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Approve(ctx, alice, review.ID), apperrors.ErrUnauthorized)
	assert.ErrorIs(t, svc.Delete(ctx, alice, review.ID), apperrors.ErrUnauthorized)
	assert.ErrorIs(t, svc.Approve(ctx, capability.Anonymous(), review.ID), apperrors.ErrUnauthenticated)
	_, err = svc.ListPending(ctx, alice)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	var stored model.Review
	require.NoError(t, env.db.First(&stored, review.ID).Error)
	assert.False(t, stored.IsApproved)
}

func TestReviewService_DeleteAndMissing(t *testing.T) {
	env, svc := setupReviewServiceTest(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice@example.com", model.RoleUser)
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	product := env.createProduct(t, "ring")

	review, err := svc.Submit(ctx, alice, SubmitReviewInput{ProductID: product.ID, Rating: 1})
	require.NoError(t, err)

	queue, err := svc.ListPending(ctx, admin)
	require.NoError(t, err)
	require.Len(t, queue, 1)

	env.recorder.Reset()
	require.NoError(t, svc.Delete(ctx, admin, review.ID))
	assert.Equal(t, int64(0), env.count(t, &model.Review{}))
	assert.Equal(t, []string{"/admin/reviews"}, env.recorder.Paths())

	assert.ErrorIs(t, svc.Approve(ctx, admin, review.ID), apperrors.ErrNotFound)
}
