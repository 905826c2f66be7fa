// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Order struct {
	BaseModel
	OrderNumber        string         `json:"order_number" gorm:"size:40;uniqueIndex;not null"`
	UserID             uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	Items              []OrderItem    `json:"items" gorm:"type:jsonb;serializer:json"`
	VendorIDs          pq.StringArray `json:"-" gorm:"type:text[]"`
	ShippingAddress    Address        `json:"shipping_address" gorm:"type:jsonb;serializer:json"`
	BillingAddress     Address        `json:"billing_address" gorm:"type:jsonb;serializer:json"`
	PaymentInfo        PaymentInfo    `json:"payment_info" gorm:"embedded;embeddedPrefix:payment_"`
	Summary            OrderSummary   `json:"order_summary" gorm:"embedded;embeddedPrefix:summary_"`
	Status             OrderStatus    `json:"status" gorm:"type:varchar(20);not null;index"`
	StatusHistory      []StatusChange `json:"status_history" gorm:"type:jsonb;serializer:json"`
	Notes              string         `json:"notes,omitempty" gorm:"type:text"`
	EstimatedDelivery  *time.Time     `json:"estimated_delivery,omitempty"`
	DeliveredAt        *time.Time     `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time     `json:"cancelled_at,omitempty"`
	CancellationReason string         `json:"cancellation_reason,omitempty" gorm:"type:text"`
	RefundAmount       float64        `json:"refund_amount" gorm:"not null;default:0"`
	CouponCode         string         `json:"coupon_code,omitempty" gorm:"size:50"`
	IsGift             bool           `json:"is_gift" gorm:"not null"`
	GiftMessage        string         `json:"gift_message,omitempty" gorm:"type:text"`
}

type OrderItem struct {
	ProductID        uuid.UUID          `json:"product_id"`
	VendorID         uuid.UUID          `json:"vendor_id"`
	Name             string             `json:"name"`
	Image            Image              `json:"image"`
	Price            float64            `json:"price"`
	Quantity         int                `json:"quantity"`
	SelectedVariants []VariantSelection `json:"selected_variants,omitempty"`
	Status           OrderStatus        `json:"status"`
	TrackingNumber   string             `json:"tracking_number,omitempty"`
	ShippingCost     float64            `json:"shipping_cost"`
}

type PaymentInfo struct {
	Method        PaymentMethod `json:"method" gorm:"type:varchar(20);not null"`
	TransactionID string        `json:"transaction_id,omitempty" gorm:"size:255"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null;index"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
}

type OrderSummary struct {
	Subtotal     float64 `json:"subtotal" gorm:"not null"`
	ShippingCost float64 `json:"shipping_cost" gorm:"not null"`
	Tax          float64 `json:"tax" gorm:"not null"`
	Discount     float64 `json:"discount" gorm:"not null;default:0"`
	Total        float64 `json:"total" gorm:"not null"`
}

type StatusChange struct {
	Status    OrderStatus `json:"status"`
	UpdatedBy uuid.UUID   `json:"updated_by"`
	UpdatedAt time.Time   `json:"updated_at"`
	Note      string      `json:"note,omitempty"`
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusReturned},
	OrderStatusCancelled:  nil,
	OrderStatusReturned:   nil,
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateStatus appends a history entry and sets the status. It never
// touches stock.
func (o *Order) UpdateStatus(status OrderStatus, actor uuid.UUID, note string, at time.Time) {
	o.StatusHistory = append(o.StatusHistory, StatusChange{
		Status:    status,
		UpdatedBy: actor,
		UpdatedAt: at,
		Note:      note,
	})
	o.Status = status

	switch status {
	case OrderStatusDelivered:
		o.DeliveredAt = &at
	case OrderStatusCancelled:
		o.CancelledAt = &at
	}
}

// Cancellable reports whether the owner may still cancel the order.
func (o *Order) Cancellable() bool {
	switch o.Status {
	case OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return false
	}
	return true
}

// MarkRefundPending flags a paid order for refund and reports whether it did.
// The refund itself is settled once the cancellation has committed.
func (o *Order) MarkRefundPending() bool {
	if o.PaymentInfo.PaymentStatus != PaymentStatusPaid {
		return false
	}
	o.PaymentInfo.PaymentStatus = PaymentStatusRefundPending
	return true
}

// MarkRefunded records a settled refund of the full order total.
func (o *Order) MarkRefunded() {
	o.RefundAmount = o.Summary.Total
	o.PaymentInfo.PaymentStatus = PaymentStatusRefunded
}

func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}

func (o *Order) HasVendor(vendorID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.VendorID == vendorID {
			return true
		}
	}
	return false
}

// SetItemStatus stamps status, and tracking number when given, on every line
// sold by vendorID. A nil vendorID stamps all lines.
func (o *Order) SetItemStatus(vendorID *uuid.UUID, status OrderStatus, trackingNumber string) {
	for i := range o.Items {
		if vendorID != nil && o.Items[i].VendorID != *vendorID {
			continue
		}
		o.Items[i].Status = status
		if trackingNumber != "" {
			o.Items[i].TrackingNumber = trackingNumber
		}
	}
}

// VendorTotals groups line revenue by vendor.
func (o *Order) VendorTotals() map[uuid.UUID]float64 {
	totals := make(map[uuid.UUID]float64)
	for _, item := range o.Items {
		totals[item.VendorID] += item.Price * float64(item.Quantity)
	}
	return totals
}

// IndexVendors refreshes the denormalised vendor id list used for vendor
// order queries.
func (o *Order) IndexVendors() {
	seen := make(map[uuid.UUID]bool)
	o.VendorIDs = o.VendorIDs[:0]
	for _, item := range o.Items {
		if !seen[item.VendorID] {
			seen[item.VendorID] = true
			o.VendorIDs = append(o.VendorIDs, item.VendorID.String())
		}
	}
}
