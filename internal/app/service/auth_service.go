package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/repository"
	"github.com/ikkim/shopfront-backend/internal/capability"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/ikkim/shopfront-backend/pkg/util"
)

// TokenBlacklist revokes access tokens before they expire (pkg/redis.Client).
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, token string, expiry time.Duration) error
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"max=100"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, *util.TokenPair, error)
	Login(ctx context.Context, input LoginInput) (*model.User, *util.TokenPair, error)
	Me(ctx context.Context, caller capability.Identity) (*model.User, error)
	Logout(ctx context.Context, caller capability.Identity, accessToken string) error
}

type authService struct {
	provider      *capability.Provider
	userRepo      repository.UserRepository
	blacklist     TokenBlacklist
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewAuthService builds the auth service. blacklist may be nil; logout then only
// succeeds client-side and tokens live until they expire.
func NewAuthService(
	provider *capability.Provider,
	userRepo repository.UserRepository,
	blacklist TokenBlacklist,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		provider:      provider,
		userRepo:      userRepo,
		blacklist:     blacklist,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, *util.TokenPair, error) {
	log := logger.From(ctx)
	input.Email = normalizeEmail(input.Email)
	if err := validateInput(input); err != nil {
		return nil, nil, err
	}
	if err := checkPassword(input.Password); err != nil {
		return nil, nil, err
	}

	log.Info("Attempting user registration", map[string]interface{}{
		"email": input.Email,
	})

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		log.Error("Failed to hash password", err, map[string]interface{}{
			"email": input.Email,
		})
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        input.Email,
		PasswordHash: hashedPassword,
	}
	profile := &model.Profile{
		Email: input.Email,
		Name:  strings.TrimSpace(input.Name),
		Role:  model.RoleUser,
	}
	if err := s.userRepo.CreateWithProfile(ctx, s.provider.Elevated(), user, profile); err != nil {
		if apperrors.IsUniqueViolation(err) {
			log.Warn("Registration failed: email already exists", map[string]interface{}{
				"email": input.Email,
			})
			return nil, nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, nil, storeFailure(ctx, "Failed to create user in database", err, map[string]interface{}{
			"email": input.Email,
		})
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	log.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, tokens, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*model.User, *util.TokenPair, error) {
	log := logger.From(ctx)
	input.Email = normalizeEmail(input.Email)
	if err := validateInput(input); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, s.provider.Elevated(), input.Email)
	if err != nil {
		if apperrors.IsRecordNotFound(err) {
			log.Warn("Login failed: user not found", map[string]interface{}{
				"email": input.Email,
			})
			return nil, nil, apperrors.ErrInvalidCredentials
		}
		return nil, nil, storeFailure(ctx, "Failed to find user", err, map[string]interface{}{
			"email": input.Email,
		})
	}

	if !util.VerifyPassword(user.PasswordHash, input.Password) {
		log.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	log.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"role":    roleOf(user),
	})
	return user, tokens, nil
}

func (s *authService) Me(ctx context.Context, caller capability.Identity) (*model.User, error) {
	if caller.IsAnonymous() {
		return nil, apperrors.ErrUnauthenticated
	}
	user, err := s.userRepo.FindByID(ctx, s.provider.Elevated(), caller.UserID)
	if err != nil {
		if apperrors.IsRecordNotFound(err) {
			return nil, fmt.Errorf("%w: user %d", apperrors.ErrNotFound, caller.UserID)
		}
		return nil, storeFailure(ctx, "Failed to fetch user", err, map[string]interface{}{
			"user_id": caller.UserID,
		})
	}
	return user, nil
}

// Logout revokes the access token for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, caller capability.Identity, accessToken string) error {
	if caller.IsAnonymous() {
		return apperrors.ErrUnauthenticated
	}
	if s.blacklist == nil {
		logger.From(ctx).Debug("Token blacklist disabled, logout is client-side only", map[string]interface{}{
			"user_id": caller.UserID,
		})
		return nil
	}

	ttl := s.accessExpiry
	if claims, err := util.ValidateToken(accessToken, s.jwtSecret); err == nil && claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, accessToken, ttl); err != nil {
		return storeFailure(ctx, "Failed to revoke token", err, map[string]interface{}{
			"user_id": caller.UserID,
		})
	}

	logger.From(ctx).Info("User logged out", map[string]interface{}{
		"user_id": caller.UserID,
	})
	return nil
}

func (s *authService) issueTokens(ctx context.Context, user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		roleOf(user),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.From(ctx).Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, fmt.Errorf("generate tokens: %w", err)
	}
	return tokens, nil
}

func roleOf(user *model.User) string {
	if user.Profile == nil || user.Profile.Role == "" {
		return string(model.RoleUser)
	}
	return string(user.Profile.Role)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkPassword maps password policy failures onto the validation taxonomy.
func checkPassword(password string) error {
	err := util.ValidatePassword(password)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, util.ErrPasswordTooShort):
		return apperrors.Invalid("password", fmt.Sprintf("비밀번호는 %d자 이상이어야 합니다", util.MinPasswordLength))
	case errors.Is(err, util.ErrPasswordTooLong):
		return apperrors.Invalid("password", "비밀번호가 너무 깁니다")
	default:
		return apperrors.Invalid("password", "비밀번호가 올바르지 않습니다")
	}
}
