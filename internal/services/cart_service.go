// internal/services/cart_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/pricing"
	"github.com/javajoker/marketplace-backend/internal/repository"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

type CartService struct {
	store repository.Store
	now   func() time.Time
}

type AddToCartRequest struct {
	ProductID        uuid.UUID                 `json:"product_id" validate:"required"`
	Quantity         int                       `json:"quantity" validate:"gte=0"`
	SelectedVariants []models.VariantSelection `json:"selected_variants" validate:"dive"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// CartProduct is the live product data shown next to a cart line.
type CartProduct struct {
	ID       uuid.UUID            `json:"id"`
	VendorID uuid.UUID            `json:"vendor_id"`
	Name     string               `json:"name"`
	Price    float64              `json:"price"`
	Image    models.Image         `json:"image"`
	Stock    int                  `json:"stock"`
	Status   models.ProductStatus `json:"status"`
}

type CartLine struct {
	models.CartItem
	Product *CartProduct `json:"product,omitempty"`
}

type CartView struct {
	*models.Cart
	Items []CartLine `json:"items"`
}

func NewCartService(store repository.Store) *CartService {
	return &CartService{store: store, now: time.Now}
}

func (s *CartService) loadOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.store.Carts().FindByUserID(ctx, userID)
	if err == nil {
		cart.Recalculate()
		return cart, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	cart = &models.Cart{UserID: userID}
	cart.Recalculate()
	if err := s.store.Carts().Create(ctx, cart); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Created concurrently by another request.
			return s.loadOrCreate(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return cart, nil
}

// prune drops lines whose product is gone, not sellable or short of stock
// and persists the cart when anything changed.
func (s *CartService) prune(ctx context.Context, cart *models.Cart) (map[uuid.UUID]*models.Product, error) {
	products, err := s.store.Products().FindByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	valid := make([]models.CartItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		if !ok || !p.IsAvailable() || !p.HasStock(item.Quantity) {
			continue
		}
		valid = append(valid, item)
	}

	if len(valid) != len(cart.Items) {
		cart.Items = valid
		cart.Recalculate()
		if err := s.store.Carts().Save(ctx, cart); err != nil {
			return nil, fmt.Errorf("failed to save cart: %w", err)
		}
	}
	return products, nil
}

func (s *CartService) view(cart *models.Cart, products map[uuid.UUID]*models.Product) *CartView {
	lines := make([]CartLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		line := CartLine{CartItem: item}
		if p, ok := products[item.ProductID]; ok {
			line.Product = &CartProduct{
				ID:       p.ID,
				VendorID: p.VendorID,
				Name:     p.Name,
				Price:    p.Price,
				Image:    p.MainImage(),
				Stock:    p.Inventory.Quantity,
				Status:   p.Status,
			}
		}
		lines = append(lines, line)
	}
	return &CartView{Cart: cart, Items: lines}
}

// GetCart returns the user's cart, creating it on first access and
// dropping stale lines.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	products, err := s.prune(ctx, cart)
	if err != nil {
		return nil, err
	}
	return s.view(cart, products), nil
}

func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req *AddToCartRequest) (*CartView, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	product, err := s.store.Products().FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, lookupErr(err, "product")
	}
	if !product.IsAvailable() {
		return nil, invalidState("product is not available")
	}
	if !product.HasStock(quantity) {
		return nil, insufficientStock(product.Name)
	}

	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if idx := cart.FindLine(product.ID, req.SelectedVariants); idx >= 0 {
		merged := cart.Items[idx].Quantity + quantity
		if !product.HasStock(merged) {
			return nil, newError(ErrInsufficientStock, "insufficient stock for requested quantity of %s", product.Name)
		}
		cart.Items[idx].Quantity = merged
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ID:               uuid.New(),
			ProductID:        product.ID,
			Quantity:         quantity,
			SelectedVariants: req.SelectedVariants,
			Price:            product.Price,
			AddedAt:          s.now(),
		})
	}

	cart.Recalculate()
	if err := s.store.Carts().Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	return s.GetCart(ctx, userID)
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, invalidState("quantity must be at least 1")
	}

	cart, err := s.store.Carts().FindByUserID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "cart")
	}

	idx := cart.FindItem(itemID)
	if idx < 0 {
		return nil, notFound("cart item")
	}

	product, err := s.store.Products().FindByID(ctx, cart.Items[idx].ProductID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil || !product.HasStock(quantity) {
		name := "this product"
		if product != nil {
			name = product.Name
		}
		return nil, insufficientStock(name)
	}

	cart.Items[idx].Quantity = quantity
	cart.Recalculate()
	if err := s.store.Carts().Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	return s.GetCart(ctx, userID)
}

// RemoveItem drops one line. Removing a line that is not there is not an
// error.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cart.RemoveItem(itemID) {
		if err := s.store.Carts().Save(ctx, cart); err != nil {
			return nil, fmt.Errorf("failed to save cart: %w", err)
		}
	}

	return s.GetCart(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !cart.IsEmpty() {
		cart.Clear()
		if err := s.store.Carts().Save(ctx, cart); err != nil {
			return nil, fmt.Errorf("failed to save cart: %w", err)
		}
	}

	return s.view(cart, nil), nil
}

// Summary prices the pruned cart with the frozen line prices and the live
// shipping terms of each product.
func (s *CartService) Summary(ctx context.Context, userID uuid.UUID) (pricing.Summary, error) {
	cart, err := s.loadOrCreate(ctx, userID)
	if err != nil {
		return pricing.Summary{}, err
	}
	products, err := s.prune(ctx, cart)
	if err != nil {
		return pricing.Summary{}, err
	}

	lines := make([]pricing.Line, 0, len(cart.Items))
	for _, item := range cart.Items {
		p := products[item.ProductID]
		lines = append(lines, pricing.Line{
			UnitPrice:    item.Price,
			Quantity:     item.Quantity,
			ShippingCost: p.Shipping.ShippingCost,
			FreeShipping: p.Shipping.IsFreeShipping,
		})
	}
	return pricing.Summarize(lines), nil
}
