package service

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/capability"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/ikkim/shopfront-backend/pkg/metrics"
	"github.com/ikkim/shopfront-backend/pkg/util"
)

type ProvisionAdminInput struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required"`
	SecretKey string `json:"secret_key"`
}

type ProvisionedAdmin struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
}

// BootstrapService creates the first administrator. The route is mounted only while
// bootstrap is enabled in config; turn it off once the account exists.
type BootstrapService interface {
	ProvisionAdmin(ctx context.Context, input ProvisionAdminInput) (*ProvisionedAdmin, error)
}

type bootstrapService struct {
	provider *capability.Provider
	userRepo repository.UserRepository
	metrics  *metrics.StorefrontMetrics
	secret   []byte
	clock    Clock
}

func NewBootstrapService(
	provider *capability.Provider,
	userRepo repository.UserRepository,
	m *metrics.StorefrontMetrics,
	secret string,
	clock Clock,
) BootstrapService {
	return &bootstrapService{
		provider: provider,
		userRepo: userRepo,
		metrics:  m,
		secret:   []byte(secret),
		clock:    clock,
	}
}

func (s *bootstrapService) ProvisionAdmin(ctx context.Context, input ProvisionAdminInput) (result *ProvisionedAdmin, err error) {
	defer func() { s.metrics.ObserveMutation("bootstrap_admin", err) }()
	log := logger.From(ctx)

	// An empty configured secret never matches, even an empty input.
	if len(s.secret) == 0 || subtle.ConstantTimeCompare([]byte(input.SecretKey), s.secret) != 1 {
		log.Warn("Bootstrap rejected: secret mismatch", nil)
		return nil, fmt.Errorf("%w: bootstrap secret mismatch", apperrors.ErrUnauthorized)
	}

	input.Email = normalizeEmail(input.Email)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := checkPassword(input.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		log.Error("Failed to hash bootstrap password", err, nil)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := s.provider.Elevated()
	confirmedAt := s.clock().UTC()
	user := &model.User{
		Email:            input.Email,
		PasswordHash:     hashedPassword,
		EmailConfirmedAt: &confirmedAt,
	}
	if err := s.userRepo.Create(ctx, admin, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, storeFailure(ctx, "Failed to create bootstrap admin", err, map[string]interface{}{
			"email": input.Email,
		})
	}

	if err := s.forceAdminRole(ctx, admin, user); err != nil {
		return nil, storeFailure(ctx, "Failed to grant admin role", err, map[string]interface{}{
			"user_id": user.ID,
		})
	}

	log.Info("Bootstrap admin provisioned", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return &ProvisionedAdmin{UserID: user.ID, Email: user.Email}, nil
}

// forceAdminRole updates the profile role, inserting the profile when no row exists yet.
// A profile written concurrently between the two steps makes the insert collide; the
// update is then retried once.
func (s *bootstrapService) forceAdminRole(ctx context.Context, admin *capability.Elevated, user *model.User) error {
	rows, err := s.userRepo.UpdateProfileRole(ctx, admin, user.ID, model.RoleAdmin)
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	logger.From(ctx).Debug("Profile missing for bootstrap admin, inserting", map[string]interface{}{
		"user_id": user.ID,
	})
	err = s.userRepo.CreateProfile(ctx, admin, &model.Profile{
		UserID: user.ID,
		Email:  user.Email,
		Role:   model.RoleAdmin,
	})
	if err == nil {
		return nil
	}
	if !apperrors.IsUniqueViolation(err) {
		return err
	}

	rows, err = s.userRepo.UpdateProfileRole(ctx, admin, user.ID, model.RoleAdmin)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("profile for user %d vanished during bootstrap", user.ID)
	}
	return nil
}
