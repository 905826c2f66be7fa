// internal/services/user_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

type UserService struct {
	store repository.Store
}

type AddAddressRequest struct {
	models.Address
	Label     string `json:"label,omitempty" validate:"max=50"`
	IsDefault bool   `json:"is_default"`
}

type UpdateUserStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	return user, nil
}

// AddAddress stores a new address on the user's profile. The first address
// becomes the default, and a new default clears the previous one.
func (s *UserService) AddAddress(ctx context.Context, userID uuid.UUID, req *AddAddressRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.AddAddress(models.UserAddress{
		Address:   req.Address,
		Label:     req.Label,
		IsDefault: req.IsDefault,
	})

	if err := s.store.Users().Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save address: %w", err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	users, total, err := s.store.Users().List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, total, nil
}

// SetUserActive enables or disables an account. Admins can not disable
// themselves.
func (s *UserService) SetUserActive(ctx context.Context, adminID, userID uuid.UUID, active bool) (*models.User, error) {
	if adminID == userID && !active {
		return nil, invalidState("you can not deactivate your own account")
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.IsActive = active
	if err := s.store.Users().Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   userID,
		"admin_id":  adminID,
		"is_active": active,
	}).Info("User status updated")

	return user, nil
}
