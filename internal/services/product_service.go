// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

const DefaultProductPageLimit = 12

const skuSequence = "product_sku"

type ProductService struct {
	store repository.Store
	now   func() time.Time
}

type CreateProductRequest struct {
	CategoryID       uuid.UUID               `json:"category_id" validate:"required"`
	SubcategoryID    *uuid.UUID              `json:"subcategory_id,omitempty"`
	Name             string                  `json:"name" validate:"required,min=2,max=200"`
	Description      string                  `json:"description" validate:"required,min=10"`
	ShortDescription string                  `json:"short_description,omitempty" validate:"max=500"`
	Brand            string                  `json:"brand,omitempty" validate:"max=100"`
	Price            float64                 `json:"price" validate:"gte=0"`
	ComparePrice     *float64                `json:"compare_price,omitempty" validate:"omitempty,gt=0"`
	CostPrice        *float64                `json:"cost_price,omitempty" validate:"omitempty,gte=0"`
	Images           []models.Image          `json:"images,omitempty"`
	Variants         []models.ProductVariant `json:"variants,omitempty" validate:"dive"`
	Inventory        InventoryInput          `json:"inventory"`
	Dimensions       *models.Dimensions      `json:"dimensions,omitempty"`
	Shipping         models.ShippingInfo     `json:"shipping"`
	SEO              models.SEO              `json:"seo"`
	Tags             []string                `json:"tags,omitempty"`
	Featured         bool                    `json:"featured"`
	Status           models.ProductStatus    `json:"status,omitempty"`
}

type InventoryInput struct {
	Quantity          int  `json:"quantity" validate:"gte=0"`
	LowStockThreshold int  `json:"low_stock_threshold" validate:"gte=0"`
	TrackQuantity     bool `json:"track_quantity"`
}

// UpdateProductRequest applies only the fields that are present.
type UpdateProductRequest struct {
	CategoryID       *uuid.UUID              `json:"category_id,omitempty"`
	Name             *string                 `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description      *string                 `json:"description,omitempty" validate:"omitempty,min=10"`
	ShortDescription *string                 `json:"short_description,omitempty" validate:"omitempty,max=500"`
	Brand            *string                 `json:"brand,omitempty" validate:"omitempty,max=100"`
	Price            *float64                `json:"price,omitempty" validate:"omitempty,gte=0"`
	ComparePrice     *float64                `json:"compare_price,omitempty" validate:"omitempty,gt=0"`
	Images           []models.Image          `json:"images,omitempty"`
	Variants         []models.ProductVariant `json:"variants,omitempty" validate:"dive"`
	Inventory        *InventoryInput         `json:"inventory,omitempty"`
	Shipping         *models.ShippingInfo    `json:"shipping,omitempty"`
	SEO              *models.SEO             `json:"seo,omitempty"`
	Tags             []string                `json:"tags,omitempty"`
	Featured         *bool                   `json:"featured,omitempty"`
	Status           *models.ProductStatus   `json:"status,omitempty"`
	IsActive         *bool                   `json:"is_active,omitempty"`
}

type AddReviewRequest struct {
	Rating  int            `json:"rating" validate:"required,min=1,max=5"`
	Comment string         `json:"comment" validate:"max=1000"`
	Images  []models.Image `json:"images,omitempty"`
}

// ProductSearchParams is the public catalog query. Category holds a category
// id or slug.
type ProductSearchParams struct {
	utils.PaginationParams
	VendorID *uuid.UUID
	PriceMin *float64
	PriceMax *float64
	Tags     []string
	Brand    string
	Featured *bool
}

type ProductDetail struct {
	*models.Product
	Related []models.Product `json:"related_products"`
}

func NewProductService(store repository.Store) *ProductService {
	return &ProductService{store: store, now: time.Now}
}

func (s *ProductService) SearchProducts(ctx context.Context, params ProductSearchParams) ([]models.Product, int64, error) {
	filter := repository.ProductFilter{
		PaginationParams: params.PaginationParams,
		PublicOnly:       true,
		VendorID:         params.VendorID,
		PriceMin:         params.PriceMin,
		PriceMax:         params.PriceMax,
		Tags:             params.Tags,
		Brand:            params.Brand,
		Featured:         params.Featured,
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultProductPageLimit
	}

	if params.Category != "" {
		categoryID, err := s.resolveCategory(ctx, params.Category)
		if errors.Is(err, repository.ErrNotFound) {
			return []models.Product{}, 0, nil
		}
		if err != nil {
			return nil, 0, err
		}
		filter.CategoryID = &categoryID
	}

	products, total, err := s.store.Products().Search(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search products: %w", err)
	}
	return products, total, nil
}

func (s *ProductService) resolveCategory(ctx context.Context, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	category, err := s.store.Categories().FindBySlug(ctx, strings.ToLower(ref))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, err
		}
		return uuid.Nil, fmt.Errorf("failed to resolve category: %w", err)
	}
	return category.ID, nil
}

// GetProduct returns a product with related listings from its category.
// Listings that are not for sale are visible only to their vendor and
// admins. Every visit bumps the view counter.
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID, isAdmin bool) (*ProductDetail, error) {
	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "product")
	}

	if !product.IsAvailable() && !isAdmin {
		owner := false
		if viewerID != nil {
			vendor, err := s.store.Vendors().FindByID(ctx, product.VendorID)
			owner = err == nil && vendor.UserID == *viewerID
		}
		if !owner {
			return nil, notFound("product")
		}
	}

	if err := s.store.Products().IncrementViewCount(ctx, id); err != nil {
		logrus.WithError(err).WithField("product_id", id).Warn("Failed to increment view count")
	} else {
		product.ViewCount++
	}

	related, _, err := s.store.Products().Search(ctx, repository.ProductFilter{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: models.MaxRelatedProducts, Sort: repository.SortNewest},
		PublicOnly:       true,
		CategoryID:       &product.CategoryID,
		ExcludeID:        &product.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load related products: %w", err)
	}

	return &ProductDetail{Product: product, Related: related}, nil
}

// approvedVendor returns the vendor profile of userID, which must be approved
// to manage listings.
func (s *ProductService) approvedVendor(ctx context.Context, userID uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.store.Vendors().FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, forbidden("vendor profile required")
		}
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}
	if !vendor.IsApproved() {
		return nil, forbidden("vendor account is not approved")
	}
	return vendor, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, userID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, invalidState("invalid product status %q", req.Status)
	}

	vendor, err := s.approvedVendor(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Categories().FindByID(ctx, req.CategoryID); err != nil {
		return nil, lookupErr(err, "category")
	}

	sku, err := s.nextSKU(ctx, vendor)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.ProductStatusActive
	}
	threshold := req.Inventory.LowStockThreshold
	if threshold == 0 {
		threshold = models.DefaultLowStockThreshold
	}

	product := &models.Product{
		VendorID:         vendor.ID,
		CategoryID:       req.CategoryID,
		SubcategoryID:    req.SubcategoryID,
		Name:             req.Name,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Brand:            req.Brand,
		SKU:              sku,
		Price:            req.Price,
		ComparePrice:     req.ComparePrice,
		CostPrice:        req.CostPrice,
		Images:           req.Images,
		Variants:         req.Variants,
		Inventory: models.Inventory{
			Quantity:          req.Inventory.Quantity,
			LowStockThreshold: threshold,
			TrackQuantity:     req.Inventory.TrackQuantity,
		},
		Dimensions: req.Dimensions,
		Shipping:   req.Shipping,
		SEO:        req.SEO,
		Tags:       req.Tags,
		Featured:   req.Featured,
		Status:     status,
		IsActive:   true,
	}
	product.RefreshDerived()

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Products().Create(ctx, product); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return newError(ErrConflict, "product SKU %s already exists", product.SKU)
			}
			return fmt.Errorf("failed to create product: %w", err)
		}
		if err := tx.Categories().AdjustProductCount(ctx, product.CategoryID, 1); err != nil {
			return fmt.Errorf("failed to update category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"vendor_id":  vendor.ID,
		"sku":        product.SKU,
	}).Info("Product created")

	return product, nil
}

// nextSKU builds <vendor prefix>-<unix millis><seq>. The shared sequence keeps
// SKUs created in the same millisecond apart.
func (s *ProductService) nextSKU(ctx context.Context, vendor *models.Vendor) (string, error) {
	seq, err := s.store.Sequences().Next(ctx, skuSequence)
	if err != nil {
		return "", fmt.Errorf("failed to generate SKU: %w", err)
	}
	return fmt.Sprintf("%s-%d%04d", vendor.SKUPrefix(), s.now().UnixMilli(), seq), nil
}

// ownedProduct loads a product under a row lock and checks that the vendor
// profile of userID sells it.
func (s *ProductService) ownedProduct(ctx context.Context, tx repository.Store, userID, productID uuid.UUID) (*models.Product, error) {
	product, err := tx.Products().LockByID(ctx, productID)
	if err != nil {
		return nil, lookupErr(err, "product")
	}
	vendor, err := tx.Vendors().FindByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}
	if vendor == nil || vendor.ID != product.VendorID {
		return nil, forbidden("not authorized to modify this product")
	}
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, userID, productID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, invalidState("invalid product status %q", *req.Status)
	}

	var product *models.Product
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		product, err = s.ownedProduct(ctx, tx, userID, productID)
		if err != nil {
			return err
		}

		if req.CategoryID != nil && *req.CategoryID != product.CategoryID {
			if _, err := tx.Categories().FindByID(ctx, *req.CategoryID); err != nil {
				return lookupErr(err, "category")
			}
			if err := tx.Categories().AdjustProductCount(ctx, product.CategoryID, -1); err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}
			if err := tx.Categories().AdjustProductCount(ctx, *req.CategoryID, 1); err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}
			product.CategoryID = *req.CategoryID
		}

		applyProductUpdate(product, req)
		product.RefreshDerived()

		if err := tx.Products().Save(ctx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func applyProductUpdate(p *models.Product, req *UpdateProductRequest) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.ShortDescription != nil {
		p.ShortDescription = *req.ShortDescription
	}
	if req.Brand != nil {
		p.Brand = *req.Brand
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.ComparePrice != nil {
		p.ComparePrice = req.ComparePrice
	}
	if req.Images != nil {
		p.Images = req.Images
	}
	if req.Variants != nil {
		p.Variants = req.Variants
	}
	if req.Inventory != nil {
		p.Inventory.Quantity = req.Inventory.Quantity
		p.Inventory.TrackQuantity = req.Inventory.TrackQuantity
		if req.Inventory.LowStockThreshold > 0 {
			p.Inventory.LowStockThreshold = req.Inventory.LowStockThreshold
		}
	}
	if req.Shipping != nil {
		p.Shipping = *req.Shipping
	}
	if req.SEO != nil {
		p.SEO = *req.SEO
	}
	if req.Tags != nil {
		p.Tags = req.Tags
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}

// DeleteProduct soft deletes a listing. Orders keep their frozen copy of
// the line.
func (s *ProductService) DeleteProduct(ctx context.Context, userID, productID uuid.UUID) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		product, err := s.ownedProduct(ctx, tx, userID, productID)
		if err != nil {
			return err
		}
		if err := tx.Products().Delete(ctx, product.ID); err != nil {
			return lookupErr(err, "product")
		}
		if err := tx.Categories().AdjustProductCount(ctx, product.CategoryID, -1); err != nil {
			return fmt.Errorf("failed to update category: %w", err)
		}
		return nil
	})
}

// AddReview records one review per user. A review is marked as a verified
// purchase when the user has a delivered order containing the product.
func (s *ProductService) AddReview(ctx context.Context, userID, productID uuid.UUID, req *AddReviewRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	verified, err := s.hasPurchased(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	var product *models.Product
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		product, err = tx.Products().LockByID(ctx, productID)
		if err != nil {
			return lookupErr(err, "product")
		}

		err = product.AddReview(models.Review{
			UserID:             userID,
			Rating:             req.Rating,
			Comment:            req.Comment,
			Images:             req.Images,
			IsVerifiedPurchase: verified,
			CreatedAt:          s.now(),
		})
		if errors.Is(err, models.ErrAlreadyReviewed) {
			return newError(ErrInvalidState, "%s", err.Error())
		}

		if err := tx.Products().Save(ctx, product); err != nil {
			return fmt.Errorf("failed to save review: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) hasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	delivered := models.OrderStatusDelivered
	orders, _, err := s.store.Orders().List(ctx, repository.OrderFilter{UserID: &userID, Status: &delivered})
	if err != nil {
		return false, fmt.Errorf("failed to load orders: %w", err)
	}
	for _, order := range orders {
		for _, item := range order.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

// VendorProducts lists every listing of the caller's vendor profile,
// whatever its status.
func (s *ProductService) VendorProducts(ctx context.Context, userID uuid.UUID, params utils.PaginationParams, status *models.ProductStatus) ([]models.Product, int64, error) {
	vendor, err := s.store.Vendors().FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, forbidden("vendor profile required")
		}
		return nil, 0, fmt.Errorf("failed to load vendor: %w", err)
	}

	products, total, err := s.store.Products().Search(ctx, repository.ProductFilter{
		PaginationParams: params,
		VendorID:         &vendor.ID,
		Status:           status,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, total, nil
}

func (s *ProductService) ListAllProducts(ctx context.Context, params utils.PaginationParams, status *models.ProductStatus) ([]models.Product, int64, error) {
	products, total, err := s.store.Products().Search(ctx, repository.ProductFilter{
		PaginationParams: params,
		Status:           status,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, total, nil
}

func (s *ProductService) UpdateProductStatus(ctx context.Context, productID uuid.UUID, status models.ProductStatus) (*models.Product, error) {
	if !status.Valid() {
		return nil, invalidState("invalid product status %q", status)
	}

	var product *models.Product
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		product, err = tx.Products().LockByID(ctx, productID)
		if err != nil {
			return lookupErr(err, "product")
		}
		product.Status = status
		if err := tx.Products().Save(ctx, product); err != nil {
			return fmt.Errorf("failed to update product status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}
