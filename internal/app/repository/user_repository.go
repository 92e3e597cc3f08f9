package repository

import (
	"context"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/capability"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"gorm.io/gorm"
)

// UserRepository manages identities and profiles. Identity administration always runs elevated.
type UserRepository interface {
	Create(ctx context.Context, admin *capability.Elevated, user *model.User) error
	CreateWithProfile(ctx context.Context, admin *capability.Elevated, user *model.User, profile *model.Profile) error
	FindByID(ctx context.Context, admin *capability.Elevated, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, admin *capability.Elevated, email string) (*model.User, error)
	UpdateProfileRole(ctx context.Context, admin *capability.Elevated, userID uint, role model.UserRole) (int64, error)
	CreateProfile(ctx context.Context, admin *capability.Elevated, profile *model.Profile) error
}

type userRepository struct{}

func NewUserRepository() UserRepository {
	return &userRepository{}
}

func (r *userRepository) Create(ctx context.Context, admin *capability.Elevated, user *model.User) error {
	logger.From(ctx).Debug("Creating user in database", map[string]interface{}{
		"email": user.Email,
	})

	if err := admin.DB(ctx).Omit("Profile").Create(user).Error; err != nil {
		return err
	}

	logger.From(ctx).Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

// CreateWithProfile writes the identity and its profile atomically.
func (r *userRepository) CreateWithProfile(ctx context.Context, admin *capability.Elevated, user *model.User, profile *model.Profile) error {
	return admin.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Create(user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, admin *capability.Elevated, id uint) (*model.User, error) {
	var user model.User
	if err := admin.DB(ctx).Preload("Profile").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, admin *capability.Elevated, email string) (*model.User, error) {
	logger.From(ctx).Debug("Finding user by email in database", map[string]interface{}{
		"email": email,
	})

	var user model.User
	if err := admin.DB(ctx).Preload("Profile").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfileRole reports rows affected; 0 means the profile row does not exist yet.
func (r *userRepository) UpdateProfileRole(ctx context.Context, admin *capability.Elevated, userID uint, role model.UserRole) (int64, error) {
	res := admin.DB(ctx).Model(&model.Profile{}).
		Where("user_id = ?", userID).
		Update("role", role)
	if res.Error != nil {
		logger.From(ctx).Error("Failed to update profile role", res.Error, map[string]interface{}{
			"user_id": userID,
			"role":    role,
		})
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *userRepository) CreateProfile(ctx context.Context, admin *capability.Elevated, profile *model.Profile) error {
	return admin.DB(ctx).Create(profile).Error
}
