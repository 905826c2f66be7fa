// internal/services/vendor_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

type VendorService struct {
	store        repository.Store
	orderService *OrderService
}

type VendorApplicationRequest struct {
	BusinessName        string                 `json:"business_name" validate:"required,min=2,max=100"`
	BusinessDescription string                 `json:"business_description" validate:"required,min=10,max=2000"`
	BusinessLicense     string                 `json:"business_license,omitempty" validate:"max=100"`
	TaxID               string                 `json:"tax_id,omitempty" validate:"max=50"`
	BusinessAddress     models.BusinessAddress `json:"business_address"`
	BusinessPhone       string                 `json:"business_phone" validate:"required,max=30"`
	BusinessEmail       string                 `json:"business_email" validate:"required,email"`
	SocialMedia         models.SocialLinks     `json:"social_media"`
}

type UpdateVendorProfileRequest struct {
	BusinessName        *string                 `json:"business_name,omitempty" validate:"omitempty,min=2,max=100"`
	BusinessDescription *string                 `json:"business_description,omitempty" validate:"omitempty,min=10,max=2000"`
	BusinessAddress     *models.BusinessAddress `json:"business_address,omitempty"`
	BusinessPhone       *string                 `json:"business_phone,omitempty" validate:"omitempty,max=30"`
	BusinessEmail       *string                 `json:"business_email,omitempty" validate:"omitempty,email"`
	Logo                *models.Image           `json:"logo,omitempty"`
	Banner              *models.Image           `json:"banner,omitempty"`
	PaymentInfo         *models.PayoutInfo      `json:"payment_info,omitempty"`
	SocialMedia         *models.SocialLinks     `json:"social_media,omitempty"`
}

func NewVendorService(store repository.Store, orderService *OrderService) *VendorService {
	return &VendorService{store: store, orderService: orderService}
}

// Apply creates a pending vendor profile. Each user may apply once.
func (s *VendorService) Apply(ctx context.Context, userID uuid.UUID, req *VendorApplicationRequest) (*models.Vendor, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := s.store.Vendors().FindByUserID(ctx, userID); err == nil {
		return nil, newError(ErrConflict, "vendor application already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}

	vendor := &models.Vendor{
		UserID:              userID,
		BusinessName:        strings.TrimSpace(req.BusinessName),
		BusinessDescription: req.BusinessDescription,
		BusinessLicense:     req.BusinessLicense,
		TaxID:               req.TaxID,
		BusinessAddress:     req.BusinessAddress,
		BusinessPhone:       req.BusinessPhone,
		BusinessEmail:       strings.ToLower(req.BusinessEmail),
		SocialMedia:         req.SocialMedia,
		Status:              models.VendorStatusPending,
		Commission:          models.DefaultVendorCommission,
		IsActive:            true,
	}

	if err := s.store.Vendors().Create(ctx, vendor); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "vendor application already exists")
		}
		return nil, fmt.Errorf("failed to create vendor: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"vendor_id": vendor.ID,
		"user_id":   userID,
	}).Info("Vendor application submitted")

	return vendor, nil
}

func (s *VendorService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.store.Vendors().FindByUserID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "vendor profile")
	}
	return vendor, nil
}

func (s *VendorService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateVendorProfileRequest) (*models.Vendor, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	vendor, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.BusinessName != nil {
		vendor.BusinessName = strings.TrimSpace(*req.BusinessName)
	}
	if req.BusinessDescription != nil {
		vendor.BusinessDescription = *req.BusinessDescription
	}
	if req.BusinessAddress != nil {
		vendor.BusinessAddress = *req.BusinessAddress
	}
	if req.BusinessPhone != nil {
		vendor.BusinessPhone = *req.BusinessPhone
	}
	if req.BusinessEmail != nil {
		vendor.BusinessEmail = strings.ToLower(*req.BusinessEmail)
	}
	if req.Logo != nil {
		vendor.Logo = req.Logo
	}
	if req.Banner != nil {
		vendor.Banner = req.Banner
	}
	if req.PaymentInfo != nil {
		vendor.PaymentInfo = *req.PaymentInfo
	}
	if req.SocialMedia != nil {
		vendor.SocialMedia = *req.SocialMedia
	}

	if err := s.store.Vendors().Save(ctx, vendor); err != nil {
		return nil, fmt.Errorf("failed to update vendor profile: %w", err)
	}
	return vendor, nil
}

func (s *VendorService) GetStats(ctx context.Context, userID uuid.UUID) (*models.VendorStats, error) {
	vendor, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	products, _, err := s.store.Products().Search(ctx, repository.ProductFilter{VendorID: &vendor.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	stats := &models.VendorStats{
		TotalProducts: int64(len(products)),
		TotalRevenue:  vendor.TotalSales,
	}
	for i := range products {
		if products[i].IsAvailable() {
			stats.ActiveProducts++
		}
		if products[i].IsLowStock() {
			stats.LowStockProducts++
		}
		stats.TotalUnitsSold += int64(products[i].TotalSales)
	}

	if stats.TotalOrders, err = s.store.Orders().Count(ctx, repository.OrderFilter{VendorID: &vendor.ID}); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	pending := models.OrderStatusPending
	if stats.PendingOrders, err = s.store.Orders().Count(ctx, repository.OrderFilter{VendorID: &vendor.ID, Status: &pending}); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	return stats, nil
}

func (s *VendorService) GetOrders(ctx context.Context, userID uuid.UUID, params utils.PaginationParams, status *models.OrderStatus) ([]models.Order, int64, error) {
	if status != nil && !status.Valid() {
		return nil, 0, invalidState("invalid order status %q", *status)
	}

	vendor, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	orders, total, err := s.store.Orders().List(ctx, repository.OrderFilter{
		PaginationParams: params,
		VendorID:         &vendor.ID,
		Status:           status,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, total, nil
}

// UpdateOrderStatus moves an order that contains the caller's products and
// stamps only the caller's lines.
func (s *VendorService) UpdateOrderStatus(ctx context.Context, userID, orderID uuid.UUID, req *UpdateOrderStatusRequest) (*models.Order, error) {
	vendor, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !vendor.IsApproved() {
		return nil, forbidden("vendor account is not approved")
	}
	return s.orderService.ChangeStatus(ctx, userID, &vendor.ID, orderID, req)
}
