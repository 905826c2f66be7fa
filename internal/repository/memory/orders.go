package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
)

type cartRepository struct{ s *Store }

func (r *cartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var found *models.Cart
	r.s.read(func(t *tables) {
		if c, ok := t.carts[userID]; ok {
			found = clone(c)
		}
	})
	if found == nil {
		return nil, notFound("find cart")
	}
	return found, nil
}

func (r *cartRepository) Create(ctx context.Context, cart *models.Cart) error {
	return r.s.write(func(t *tables) error {
		if _, ok := t.carts[cart.UserID]; ok {
			return duplicate("create cart")
		}
		r.s.stamp(&cart.BaseModel, true)
		t.carts[cart.UserID] = clone(cart)
		return nil
	})
}

func (r *cartRepository) Save(ctx context.Context, cart *models.Cart) error {
	return r.s.write(func(t *tables) error {
		r.s.stamp(&cart.BaseModel, false)
		t.carts[cart.UserID] = clone(cart)
		return nil
	})
}

type orderRepository struct{ s *Store }

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	order.IndexVendors()
	return r.s.write(func(t *tables) error {
		for _, existing := range t.orders {
			if existing.ID == order.ID || existing.OrderNumber == order.OrderNumber {
				return duplicate("create order")
			}
		}
		r.s.stamp(&order.BaseModel, true)
		t.orders[order.ID] = clone(order)
		return nil
	})
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var found *models.Order
	r.s.read(func(t *tables) {
		if o, ok := t.orders[id]; ok {
			found = clone(o)
		}
	})
	if found == nil {
		return nil, notFound("find order")
	}
	return found, nil
}

// LockByID is FindByID: transactions already run one at a time.
func (r *orderRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *orderRepository) Save(ctx context.Context, order *models.Order) error {
	order.IndexVendors()
	return r.s.write(func(t *tables) error {
		r.s.stamp(&order.BaseModel, false)
		t.orders[order.ID] = clone(order)
		return nil
	})
}

func matchesOrder(o *models.Order, filter repository.OrderFilter) bool {
	if filter.UserID != nil && o.UserID != *filter.UserID {
		return false
	}
	if filter.VendorID != nil && !o.HasVendor(*filter.VendorID) {
		return false
	}
	if filter.Status != nil && o.Status != *filter.Status {
		return false
	}
	if filter.PaymentStatus != nil && o.PaymentInfo.PaymentStatus != *filter.PaymentStatus {
		return false
	}
	if filter.Search != "" && !strings.Contains(strings.ToLower(o.OrderNumber), strings.ToLower(filter.Search)) {
		return false
	}
	return true
}

func (r *orderRepository) collect(filter repository.OrderFilter) []models.Order {
	orders := []models.Order{}
	r.s.read(func(t *tables) {
		for _, o := range t.orders {
			if matchesOrder(o, filter) {
				orders = append(orders, *clone(o))
			}
		}
	})
	return orders
}

func (r *orderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	orders := r.collect(filter)
	sortByCreated(orders, func(o models.Order) time.Time { return o.CreatedAt }, filter.Order)
	return paginate(orders, filter.PaginationParams), int64(len(orders)), nil
}

func (r *orderRepository) Count(ctx context.Context, filter repository.OrderFilter) (int64, error) {
	return int64(len(r.collect(filter))), nil
}
