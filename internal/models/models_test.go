package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusReturned, true},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusReturned, OrderStatusDelivered, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestOrderUpdateStatusRecordsHistory(t *testing.T) {
	actor := uuid.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	order := &Order{}

	order.UpdateStatus(OrderStatusPending, actor, "Order placed", at)
	order.UpdateStatus(OrderStatusCancelled, actor, "Changed my mind", at.Add(time.Hour))

	require.Len(t, order.StatusHistory, 2)
	assert.Equal(t, OrderStatusCancelled, order.Status)
	assert.Equal(t, "Changed my mind", order.StatusHistory[1].Note)
	require.NotNil(t, order.CancelledAt)
	assert.Equal(t, at.Add(time.Hour), *order.CancelledAt)
	assert.Nil(t, order.DeliveredAt)
}

func TestOrderCancellable(t *testing.T) {
	for status, want := range map[OrderStatus]bool{
		OrderStatusPending:    true,
		OrderStatusProcessing: true,
		OrderStatusShipped:    false,
		OrderStatusDelivered:  false,
		OrderStatusCancelled:  false,
		OrderStatusReturned:   false,
	} {
		order := &Order{Status: status}
		assert.Equal(t, want, order.Cancellable(), status)
	}
}

func TestOrderRefundMarkers(t *testing.T) {
	order := &Order{Summary: OrderSummary{Total: 48.2}}
	order.PaymentInfo.PaymentStatus = PaymentStatusPending
	assert.False(t, order.MarkRefundPending())
	assert.Equal(t, PaymentStatusPending, order.PaymentInfo.PaymentStatus)

	order.PaymentInfo.PaymentStatus = PaymentStatusPaid
	assert.True(t, order.MarkRefundPending())
	assert.Equal(t, PaymentStatusRefundPending, order.PaymentInfo.PaymentStatus)
	assert.Zero(t, order.RefundAmount)

	order.MarkRefunded()
	assert.Equal(t, PaymentStatusRefunded, order.PaymentInfo.PaymentStatus)
	assert.InDelta(t, 48.2, order.RefundAmount, 1e-9)
	assert.False(t, order.MarkRefundPending())
}

func TestOrderVendorScopedItems(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	order := &Order{Items: []OrderItem{
		{VendorID: first, Price: 10, Quantity: 2},
		{VendorID: second, Price: 5, Quantity: 1},
		{VendorID: first, Price: 3, Quantity: 1},
	}}

	order.SetItemStatus(&first, OrderStatusShipped, "TRK-9")
	assert.Equal(t, OrderStatusShipped, order.Items[0].Status)
	assert.Equal(t, "TRK-9", order.Items[2].TrackingNumber)
	assert.Empty(t, order.Items[1].Status)

	order.SetItemStatus(nil, OrderStatusCancelled, "")
	for _, item := range order.Items {
		assert.Equal(t, OrderStatusCancelled, item.Status)
	}
	assert.Equal(t, "TRK-9", order.Items[0].TrackingNumber)

	totals := order.VendorTotals()
	assert.InDelta(t, 23.0, totals[first], 1e-9)
	assert.InDelta(t, 5.0, totals[second], 1e-9)

	order.IndexVendors()
	assert.ElementsMatch(t, []string{first.String(), second.String()}, []string(order.VendorIDs))
	assert.True(t, order.HasVendor(second))
	assert.False(t, order.HasVendor(uuid.New()))
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Men's Clothing":           "men-s-clothing",
		"  Classic  Oxford Shirt ": "classic-oxford-shirt",
		"100% Wool -- Coat!":       "100-wool-coat",
		"---":                      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestProductReviewsAndStock(t *testing.T) {
	compare := 50.0
	p := &Product{
		Name:         "Oxford Shirt",
		SKU:          " cla-1 ",
		Price:        40,
		ComparePrice: &compare,
		Inventory:    Inventory{Quantity: 3, LowStockThreshold: 5},
		Shipping:     ShippingInfo{ShippingCost: 7},
		Status:       ProductStatusActive,
		IsActive:     true,
	}

	p.RefreshDerived()
	assert.Equal(t, "oxford-shirt", p.Slug)
	assert.Equal(t, "CLA-1", p.SKU)

	reviewer := uuid.New()
	require.NoError(t, p.AddReview(Review{UserID: reviewer, Rating: 5}))
	require.NoError(t, p.AddReview(Review{UserID: uuid.New(), Rating: 2}))
	assert.ErrorIs(t, p.AddReview(Review{UserID: reviewer, Rating: 1}), ErrAlreadyReviewed)
	assert.Equal(t, 2, p.Rating.Count)
	assert.InDelta(t, 3.5, p.Rating.Average, 1e-9)

	assert.True(t, p.IsAvailable())
	assert.True(t, p.HasStock(3))
	assert.False(t, p.HasStock(4))
	assert.True(t, p.IsLowStock())
	assert.Equal(t, 20, p.DiscountPercentage())
	assert.Equal(t, 7.0, p.LineShippingCost())

	p.Shipping.IsFreeShipping = true
	assert.Zero(t, p.LineShippingCost())

	p.IsActive = false
	assert.False(t, p.IsAvailable())
}

func TestCartLines(t *testing.T) {
	productID := uuid.New()
	red := []VariantSelection{{Name: "size", Value: "M"}, {Name: "color", Value: "red"}}
	cart := &Cart{Items: []CartItem{
		{ID: uuid.New(), ProductID: productID, Quantity: 2, Price: 10, SelectedVariants: red},
		{ID: uuid.New(), ProductID: productID, Quantity: 1, Price: 10},
	}}

	assert.Equal(t, 0, cart.FindLine(productID, []VariantSelection{{Name: "color", Value: "red"}, {Name: "size", Value: "M"}}))
	assert.Equal(t, 1, cart.FindLine(productID, nil))
	assert.Equal(t, -1, cart.FindLine(uuid.New(), nil))
	assert.Len(t, cart.ProductIDs(), 1)

	assert.True(t, cart.RemoveItem(cart.Items[1].ID))
	assert.False(t, cart.RemoveItem(uuid.New()))
	assert.Equal(t, 2, cart.TotalItems)
	assert.InDelta(t, 20.0, cart.TotalAmount, 1e-9)

	cart.Clear()
	assert.True(t, cart.IsEmpty())
	assert.NotNil(t, cart.Items)
}

func TestVendorStatusAndPrefix(t *testing.T) {
	admin := uuid.New()
	at := time.Now()
	v := &Vendor{BusinessName: "classic threads", Status: VendorStatusPending, IsActive: true}

	assert.Equal(t, "CLA", v.SKUPrefix())
	assert.False(t, v.IsApproved())

	v.ApplyStatus(VendorStatusApproved, admin, "", at)
	assert.True(t, v.IsApproved())
	require.NotNil(t, v.ApprovedBy)
	assert.Equal(t, admin, *v.ApprovedBy)

	v.ApplyStatus(VendorStatusRejected, admin, "Incomplete documents", at)
	assert.Equal(t, "Incomplete documents", v.RejectionReason)

	assert.Equal(t, "VND", (&Vendor{BusinessName: "***"}).SKUPrefix())
}

func TestUserAddressesAndPassword(t *testing.T) {
	u := &User{}
	first := u.AddAddress(UserAddress{Label: "home"})
	assert.True(t, first.IsDefault)

	second := u.AddAddress(UserAddress{Label: "work", IsDefault: true})
	require.Len(t, u.Addresses, 2)
	assert.False(t, u.Addresses[0].IsDefault)
	assert.Equal(t, second.ID, u.DefaultAddress().ID)

	require.NoError(t, u.SetPassword("TestPass123"))
	assert.NoError(t, u.CheckPassword("TestPass123"))
	assert.Error(t, u.CheckPassword("wrong"))
}
