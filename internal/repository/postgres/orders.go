// internal/repository/postgres/orders.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

type cartRepository struct {
	db *gorm.DB
}

func (r *cartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, translate(err, "find cart")
	}
	return &cart, nil
}

func (r *cartRepository) Create(ctx context.Context, cart *models.Cart) error {
	return translate(r.db.WithContext(ctx).Create(cart).Error, "create cart")
}

func (r *cartRepository) Save(ctx context.Context, cart *models.Cart) error {
	return translate(r.db.WithContext(ctx).Save(cart).Error, "save cart")
}

type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	order.IndexVendors()
	return translate(r.db.WithContext(ctx).Create(order).Error, "create order")
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find order")
	}
	return &order, nil
}

func (r *orderRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "lock order")
	}
	return &order, nil
}

func (r *orderRepository) Save(ctx context.Context, order *models.Order) error {
	order.IndexVendors()
	return translate(r.db.WithContext(ctx).Save(order).Error, "save order")
}

func (r *orderRepository) filtered(ctx context.Context, filter repository.OrderFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Order{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.VendorID != nil {
		query = query.Where("? = ANY(vendor_ids)", filter.VendorID.String())
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_payment_status = ?", *filter.PaymentStatus)
	}
	if filter.Search != "" {
		query = query.Where("order_number ILIKE ?", "%"+filter.Search+"%")
	}
	return query
}

func (r *orderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	query := r.filtered(ctx, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count orders")
	}

	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "updated_at", "summary_total", "status"})
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, translate(err, "list orders")
	}
	return orders, total, nil
}

func (r *orderRepository) Count(ctx context.Context, filter repository.OrderFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, filter).Count(&total).Error
	return total, translate(err, "count orders")
}

type auditLogRepository struct {
	db *gorm.DB
}

func (r *auditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	return translate(r.db.WithContext(ctx).Create(log).Error, "create audit log")
}

type sequencer struct {
	db *gorm.DB
}

// Next bumps the named counter with a single upsert so concurrent callers
// never observe the same value.
func (s *sequencer) Next(ctx context.Context, name string) (int64, error) {
	counter := models.Counter{Name: name, Value: 1}
	err := s.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"value":      gorm.Expr("counters.value + 1"),
				"updated_at": gorm.Expr("NOW()"),
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "value"}}},
	).Create(&counter).Error
	if err != nil {
		return 0, translate(err, "next sequence value")
	}
	return counter.Value, nil
}
