// internal/repository/repository.go
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate record")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Store groups the repositories that share one storage backend. Transaction
// runs fn against a store whose writes commit or roll back together.
type Store interface {
	Users() UserRepository
	Vendors() VendorRepository
	Categories() CategoryRepository
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	AuditLogs() AuditLogRepository
	Sequences() Sequencer
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// Sequencer hands out strictly increasing values per name.
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
	Count(ctx context.Context) (int64, error)
}

type VendorRepository interface {
	Create(ctx context.Context, vendor *models.Vendor) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Vendor, error)
	Save(ctx context.Context, vendor *models.Vendor) error
	List(ctx context.Context, filter VendorFilter) ([]models.Vendor, int64, error)
	Count(ctx context.Context, status *models.VendorStatus) (int64, error)
	// AdjustTotals applies sales and order deltas atomically.
	AdjustTotals(ctx context.Context, id uuid.UUID, sales float64, orders int) error
}

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	AdjustProductCount(ctx context.Context, id uuid.UUID, delta int) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// LockByID loads the product and holds a row lock until the surrounding
	// transaction ends, so a full-row Save can not overwrite a concurrent
	// stock delta.
	LockByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
	Save(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	Count(ctx context.Context, filter ProductFilter) (int64, error)
	// AdjustStock adds delta to the stock and subtracts it from total sales
	// in one atomic statement. A negative delta fails with
	// ErrInsufficientStock when the stock cannot cover it.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
}

type CartRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	Save(ctx context.Context, cart *models.Cart) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// LockByID loads the order and holds a row lock until the surrounding
	// transaction ends.
	LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	Count(ctx context.Context, filter OrderFilter) (int64, error)
}

type AuditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// Product sort keys accepted by ProductFilter.Sort.
const (
	SortNewest    = "newest"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
	SortRating    = "rating"
	SortPopular   = "popular"
)

type ProductFilter struct {
	utils.PaginationParams
	CategoryID *uuid.UUID
	VendorID   *uuid.UUID
	Status     *models.ProductStatus
	// PublicOnly restricts results to active, enabled listings.
	PublicOnly bool
	PriceMin   *float64
	PriceMax   *float64
	Tags       []string
	Brand      string
	Featured   *bool
	LowStock   bool
	ExcludeID  *uuid.UUID
}

type OrderFilter struct {
	utils.PaginationParams
	UserID        *uuid.UUID
	VendorID      *uuid.UUID
	Status        *models.OrderStatus
	PaymentStatus *models.PaymentStatus
}

type UserFilter struct {
	utils.PaginationParams
	Role     *models.UserRole
	IsActive *bool
}

type VendorFilter struct {
	utils.PaginationParams
	Status *models.VendorStatus
}
