// internal/services/admin_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

type AdminService struct {
	store               repository.Store
	notificationService *NotificationService
	now                 func() time.Time
}

type UpdateVendorStatusRequest struct {
	Status models.VendorStatus `json:"status" validate:"required"`
	Reason string              `json:"reason,omitempty" validate:"max=500"`
}

type UpdateProductStatusRequest struct {
	Status models.ProductStatus `json:"status" validate:"required"`
}

func NewAdminService(store repository.Store, notificationService *NotificationService) *AdminService {
	return &AdminService{
		store:               store,
		notificationService: notificationService,
		now:                 time.Now,
	}
}

// Dashboard Statistics
func (s *AdminService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	var err error

	if stats.TotalUsers, err = s.store.Users().Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if stats.TotalVendors, err = s.store.Vendors().Count(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to count vendors: %w", err)
	}
	pending := models.VendorStatusPending
	if stats.PendingVendors, err = s.store.Vendors().Count(ctx, &pending); err != nil {
		return nil, fmt.Errorf("failed to count vendors: %w", err)
	}
	if stats.TotalProducts, err = s.store.Products().Count(ctx, repository.ProductFilter{}); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if stats.TotalOrders, err = s.store.Orders().Count(ctx, repository.OrderFilter{}); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	return stats, nil
}

// Vendor Management
func (s *AdminService) GetVendors(ctx context.Context, params utils.PaginationParams, status *models.VendorStatus) ([]models.Vendor, int64, error) {
	if status != nil && !status.Valid() {
		return nil, 0, invalidState("invalid vendor status %q", *status)
	}
	vendors, total, err := s.store.Vendors().List(ctx, repository.VendorFilter{
		PaginationParams: params,
		Status:           status,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch vendors: %w", err)
	}
	return vendors, total, nil
}

func (s *AdminService) GetPendingVendors(ctx context.Context, params utils.PaginationParams) ([]models.Vendor, int64, error) {
	pending := models.VendorStatusPending
	return s.GetVendors(ctx, params, &pending)
}

// UpdateVendorStatus approves, rejects or suspends a vendor. Approval also
// grants the owning user the vendor role.
func (s *AdminService) UpdateVendorStatus(ctx context.Context, adminID, vendorID uuid.UUID, req *UpdateVendorStatusRequest) (*models.Vendor, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !req.Status.Valid() {
		return nil, invalidState("invalid vendor status %q", req.Status)
	}

	var vendor *models.Vendor
	var owner *models.User
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		vendor, err = tx.Vendors().FindByID(ctx, vendorID)
		if err != nil {
			return lookupErr(err, "vendor")
		}

		vendor.ApplyStatus(req.Status, adminID, req.Reason, s.now())
		if err := tx.Vendors().Save(ctx, vendor); err != nil {
			return fmt.Errorf("failed to update vendor status: %w", err)
		}

		owner, err = tx.Users().FindByID(ctx, vendor.UserID)
		if err != nil {
			return lookupErr(err, "vendor owner")
		}
		if req.Status == models.VendorStatusApproved && owner.Role == models.UserRoleCustomer {
			owner.Role = models.UserRoleVendor
			if err := tx.Users().Save(ctx, owner); err != nil {
				return fmt.Errorf("failed to update user role: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.createAuditLog(ctx, adminID, "UPDATE_VENDOR_STATUS", "vendor", vendor.ID, models.JSONB{
		"status": vendor.Status,
		"reason": req.Reason,
	})

	if s.notificationService != nil {
		v, u := *vendor, *owner
		go func() {
			if err := s.notificationService.SendVendorStatusUpdate(&v, &u); err != nil {
				logrus.WithError(err).WithField("vendor_id", v.ID).Error("Failed to send vendor status email")
			}
		}()
	}

	return vendor, nil
}

func (s *AdminService) createAuditLog(ctx context.Context, adminID uuid.UUID, action, resourceType string, resourceID uuid.UUID, newValues models.JSONB) {
	entry := &models.AuditLog{
		UserID:       &adminID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		NewValues:    newValues,
	}
	if err := s.store.AuditLogs().Create(ctx, entry); err != nil {
		logrus.WithError(err).WithField("action", action).Warn("Failed to write audit log")
	}
}
