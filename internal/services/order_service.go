// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/pricing"
	"github.com/javajoker/marketplace-backend/internal/repository"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

type OrderService struct {
	store               repository.Store
	numbers             *OrderNumberGenerator
	paymentService      *PaymentService
	notificationService *NotificationService
	now                 func() time.Time
}

type BillingAddressInput struct {
	SameAsShipping bool `json:"same_as_shipping"`
	models.Address `validate:"-"`
}

type CreateOrderRequest struct {
	ShippingAddress models.Address       `json:"shipping_address"`
	BillingAddress  *BillingAddressInput `json:"billing_address,omitempty"`
	PaymentMethod   models.PaymentMethod `json:"payment_method" validate:"required,oneof=stripe paypal cod wallet"`
	Notes           string               `json:"notes,omitempty" validate:"max=500"`
	CouponCode      string               `json:"coupon_code,omitempty" validate:"max=50"`
	IsGift          bool                 `json:"is_gift"`
	GiftMessage     string               `json:"gift_message,omitempty" validate:"max=500"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type UpdateOrderStatusRequest struct {
	Status         models.OrderStatus `json:"status" validate:"required"`
	Note           string             `json:"note,omitempty" validate:"max=500"`
	TrackingNumber string             `json:"tracking_number,omitempty" validate:"max=100"`
}

func NewOrderService(store repository.Store, numbers *OrderNumberGenerator, paymentService *PaymentService, notificationService *NotificationService) *OrderService {
	return &OrderService{
		store:               store,
		numbers:             numbers,
		paymentService:      paymentService,
		notificationService: notificationService,
		now:                 time.Now,
	}
}

func (r *CreateOrderRequest) billing() (models.Address, error) {
	if r.BillingAddress == nil || r.BillingAddress.SameAsShipping {
		return r.ShippingAddress, nil
	}
	if err := utils.ValidateStruct(&r.BillingAddress.Address); err != nil {
		return models.Address{}, fmt.Errorf("validation failed: %w", err)
	}
	return r.BillingAddress.Address, nil
}

// CreateOrder turns the user's cart into a pending order. The order, the
// stock decrements, the vendor totals and the emptied cart commit together.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	billing, err := req.billing()
	if err != nil {
		return nil, err
	}

	cart, err := s.store.Carts().FindByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart == nil || cart.IsEmpty() {
		return nil, invalidState("cart is empty")
	}

	products, err := s.store.Products().FindByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	lines := make([]pricing.Line, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, invalidState("a product in your cart is no longer available")
		}
		if !product.IsAvailable() {
			return nil, invalidState("%s is no longer available", product.Name)
		}
		if !product.HasStock(item.Quantity) {
			return nil, insufficientStock(product.Name)
		}

		items = append(items, models.OrderItem{
			ProductID:        product.ID,
			VendorID:         product.VendorID,
			Name:             product.Name,
			Image:            product.MainImage(),
			Price:            item.Price,
			Quantity:         item.Quantity,
			SelectedVariants: item.SelectedVariants,
			Status:           models.OrderStatusPending,
			ShippingCost:     product.LineShippingCost(),
		})
		lines = append(lines, pricing.Line{
			UnitPrice:    item.Price,
			Quantity:     item.Quantity,
			ShippingCost: product.Shipping.ShippingCost,
			FreeShipping: product.Shipping.IsFreeShipping,
		})
	}

	summary := pricing.Summarize(lines)

	number, err := s.numbers.Next(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		OrderNumber:     number,
		UserID:          userID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billing,
		PaymentInfo: models.PaymentInfo{
			Method:        req.PaymentMethod,
			PaymentStatus: models.PaymentStatusPending,
		},
		Summary: models.OrderSummary{
			Subtotal:     summary.Subtotal,
			ShippingCost: summary.ShippingCost,
			Tax:          summary.Tax,
			Discount:     summary.Discount,
			Total:        summary.Total,
		},
		Notes:       req.Notes,
		CouponCode:  req.CouponCode,
		IsGift:      req.IsGift,
		GiftMessage: req.GiftMessage,
	}
	order.UpdateStatus(models.OrderStatusPending, userID, "Order placed", now)

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Orders().Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, item := range order.Items {
			if err := tx.Products().AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
				switch {
				case errors.Is(err, repository.ErrInsufficientStock):
					return insufficientStock(item.Name)
				case errors.Is(err, repository.ErrNotFound):
					return invalidState("%s is no longer available", item.Name)
				}
				return fmt.Errorf("failed to reserve stock: %w", err)
			}
		}

		if err := s.adjustVendorTotals(ctx, tx, order, 1); err != nil {
			return err
		}

		cart.Clear()
		if err := tx.Carts().Save(ctx, cart); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"user_id":      userID,
		"total":        pricing.FormatAmount(order.Summary.Total),
	}).Info("Order created")

	s.notifyAsync(order, func(n *NotificationService, o *models.Order, u *models.User) error {
		return n.SendOrderConfirmation(o, u)
	})

	return order, nil
}

// adjustVendorTotals adds (sign = 1) or removes (sign = -1) the order from
// every vendor's running totals.
func (s *OrderService) adjustVendorTotals(ctx context.Context, tx repository.Store, order *models.Order, sign int) error {
	for vendorID, total := range order.VendorTotals() {
		err := tx.Vendors().AdjustTotals(ctx, vendorID, float64(sign)*total, sign)
		if errors.Is(err, repository.ErrNotFound) {
			logrus.WithFields(logrus.Fields{
				"order_number": order.OrderNumber,
				"vendor_id":    vendorID,
			}).Warn("Vendor missing while adjusting totals")
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to adjust vendor totals: %w", err)
		}
	}
	return nil
}

func (s *OrderService) GetOrder(ctx context.Context, requesterID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	if !isAdmin && !order.IsOwnedBy(requesterID) {
		return nil, forbidden("not authorized to view this order")
	}
	return order, nil
}

func (s *OrderService) MyOrders(ctx context.Context, userID uuid.UUID, params utils.PaginationParams, status *models.OrderStatus) ([]models.Order, int64, error) {
	if status != nil && !status.Valid() {
		return nil, 0, invalidState("invalid order status %q", *status)
	}
	orders, total, err := s.store.Orders().List(ctx, repository.OrderFilter{
		PaginationParams: params,
		UserID:           &userID,
		Status:           status,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, total, nil
}

func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	orders, total, err := s.store.Orders().List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, total, nil
}

// CancelOrder lets the owner cancel an order that has not shipped yet.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID, reason string) (*models.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	if !order.IsOwnedBy(userID) {
		return nil, forbidden("not authorized to cancel this order")
	}
	return s.cancel(ctx, orderID, userID, reason)
}

// cancel moves the order to cancelled and returns every line's quantity to
// stock. A paid order is marked refund pending in the same transaction and
// refunded through the provider after commit.
func (s *OrderService) cancel(ctx context.Context, orderID, actorID uuid.UUID, reason string) (*models.Order, error) {
	var order *models.Order
	refundDue := false
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		order, err = tx.Orders().LockByID(ctx, orderID)
		if err != nil {
			return lookupErr(err, "order")
		}
		if !order.Cancellable() {
			return invalidState("order can not be cancelled once %s", order.Status)
		}

		refundDue = order.MarkRefundPending()
		order.UpdateStatus(models.OrderStatusCancelled, actorID, reason, s.now())
		order.CancellationReason = reason
		order.SetItemStatus(nil, models.OrderStatusCancelled, "")
		if err := tx.Orders().Save(ctx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		for _, item := range order.Items {
			err := tx.Products().AdjustStock(ctx, item.ProductID, item.Quantity)
			if errors.Is(err, repository.ErrNotFound) {
				logrus.WithFields(logrus.Fields{
					"order_number": order.OrderNumber,
					"product_id":   item.ProductID,
				}).Warn("Product missing while restoring stock")
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to restore stock: %w", err)
			}
		}

		return s.adjustVendorTotals(ctx, tx, order, -1)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"actor_id":     actorID,
		"refund_due":   refundDue,
	}).Info("Order cancelled and stock restored")

	if refundDue && s.paymentService != nil {
		refunded, err := s.paymentService.SettleRefund(ctx, order.ID)
		if err != nil {
			logrus.WithError(err).WithField("order_number", order.OrderNumber).Warn("Refund left pending for retry")
		} else {
			order = refunded
		}
	}

	s.notifyAsync(order, func(n *NotificationService, o *models.Order, u *models.User) error {
		return n.SendOrderStatusUpdate(o, u)
	})

	return order, nil
}

// RetryRefund settles the refund of a cancelled order whose provider refund
// failed earlier.
func (s *OrderService) RetryRefund(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if s.paymentService == nil {
		return nil, invalidState("payments are not configured")
	}
	return s.paymentService.SettleRefund(ctx, orderID)
}

// ChangeStatus moves an order along the fulfilment lifecycle. A non-nil
// vendorID restricts the change to orders with that vendor's items and
// stamps only that vendor's lines.
func (s *OrderService) ChangeStatus(ctx context.Context, actorID uuid.UUID, vendorID *uuid.UUID, orderID uuid.UUID, req *UpdateOrderStatusRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !req.Status.Valid() {
		return nil, invalidState("invalid order status %q", req.Status)
	}

	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	if vendorID != nil && !order.HasVendor(*vendorID) {
		return nil, forbidden("order does not contain your products")
	}

	if req.Status == models.OrderStatusCancelled {
		reason := req.Note
		if reason == "" {
			reason = "Cancelled by seller"
		}
		return s.cancel(ctx, orderID, actorID, reason)
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		order, err = tx.Orders().LockByID(ctx, orderID)
		if err != nil {
			return lookupErr(err, "order")
		}
		if !models.CanTransition(order.Status, req.Status) {
			return invalidState("can not change order status from %s to %s", order.Status, req.Status)
		}

		now := s.now()
		order.UpdateStatus(req.Status, actorID, req.Note, now)
		order.SetItemStatus(vendorID, req.Status, req.TrackingNumber)

		if req.Status == models.OrderStatusDelivered &&
			order.PaymentInfo.Method == models.PaymentMethodCOD &&
			order.PaymentInfo.PaymentStatus == models.PaymentStatusPending {
			order.PaymentInfo.PaymentStatus = models.PaymentStatusPaid
			order.PaymentInfo.PaidAt = &now
		}

		if err := tx.Orders().Save(ctx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_number": order.OrderNumber,
		"status":       order.Status,
		"actor_id":     actorID,
	}).Info("Order status updated")

	s.notifyAsync(order, func(n *NotificationService, o *models.Order, u *models.User) error {
		return n.SendOrderStatusUpdate(o, u)
	})

	return order, nil
}

func (s *OrderService) notifyAsync(order *models.Order, send func(*NotificationService, *models.Order, *models.User) error) {
	if s.notificationService == nil {
		return
	}

	snapshot := *order
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		user, err := s.store.Users().FindByID(ctx, snapshot.UserID)
		if err != nil {
			logrus.WithError(err).WithField("order_number", snapshot.OrderNumber).Warn("Failed to load order owner for notification")
			return
		}
		if err := send(s.notificationService, &snapshot, user); err != nil {
			logrus.WithError(err).WithField("order_number", snapshot.OrderNumber).Error("Failed to send order notification")
		}
	}()
}
