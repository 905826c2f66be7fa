package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/marketplace-backend/internal/config"
	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
	"github.com/javajoker/marketplace-backend/internal/repository/memory"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

type ServicesTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store

	carts      *CartService
	orders     *OrderService
	products   *ProductService
	vendors    *VendorService
	admin      *AdminService
	payments   *PaymentService
	auth       *AuthService
	users      *UserService
	categories *CategoryService

	customer   *models.User
	vendorUser *models.User
	adminUser  *models.User
	vendor     *models.Vendor
	category   *models.Category
}

func (s *ServicesTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()

	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1, RefreshTokenTTL: 24},
		Payment: config.PaymentConfig{Currency: "usd"},
	}

	s.payments = NewPaymentService(s.store, StubPaymentProvider{}, cfg.Payment)
	s.carts = NewCartService(s.store)
	s.orders = NewOrderService(s.store, NewOrderNumberGenerator(s.store.Sequences(), "CW"), s.payments, nil)
	s.products = NewProductService(s.store)
	s.vendors = NewVendorService(s.store, s.orders)
	s.admin = NewAdminService(s.store, nil)
	s.auth = NewAuthService(s.store, cfg, nil)
	s.users = NewUserService(s.store)
	s.categories = NewCategoryService(s.store)

	s.customer = s.createUser("buyer@example.com", models.UserRoleCustomer)
	s.vendorUser = s.createUser("seller@example.com", models.UserRoleVendor)
	s.adminUser = s.createUser("admin@example.com", models.UserRoleAdmin)
	s.vendor = s.createVendor(s.vendorUser, "Classic Threads", models.VendorStatusApproved)

	var err error
	s.category, err = s.categories.CreateCategory(s.ctx, &CreateCategoryRequest{Name: "Men's Clothing"})
	s.Require().NoError(err)
}

func (s *ServicesTestSuite) createUser(email string, role models.UserRole) *models.User {
	user := &models.User{FirstName: "Test", LastName: "User", Email: email, Role: role, IsActive: true}
	s.Require().NoError(s.store.Users().Create(s.ctx, user))
	return user
}

func (s *ServicesTestSuite) createVendor(owner *models.User, name string, status models.VendorStatus) *models.Vendor {
	vendor := &models.Vendor{
		UserID:       owner.ID,
		BusinessName: name,
		Status:       status,
		Commission:   models.DefaultVendorCommission,
		IsActive:     true,
	}
	s.Require().NoError(s.store.Vendors().Create(s.ctx, vendor))
	return vendor
}

func (s *ServicesTestSuite) createProduct(vendor *models.Vendor, name string, price float64, stock int, shipping float64) *models.Product {
	product := &models.Product{
		VendorID:    vendor.ID,
		CategoryID:  s.category.ID,
		Name:        name,
		Description: name + " for every season",
		SKU:         "SKU-" + uuid.NewString(),
		Price:       price,
		Inventory:   models.Inventory{Quantity: stock, LowStockThreshold: 2, TrackQuantity: true},
		Shipping:    models.ShippingInfo{ShippingCost: shipping},
		Status:      models.ProductStatusActive,
		IsActive:    true,
	}
	s.Require().NoError(s.store.Products().Create(s.ctx, product))
	return product
}

func (s *ServicesTestSuite) addToCart(user *models.User, product *models.Product, quantity int) {
	_, err := s.carts.AddItem(s.ctx, user.ID, &AddToCartRequest{ProductID: product.ID, Quantity: quantity})
	s.Require().NoError(err)
}

func (s *ServicesTestSuite) checkout(user *models.User, method models.PaymentMethod) (*models.Order, error) {
	return s.orders.CreateOrder(s.ctx, user.ID, &CreateOrderRequest{
		ShippingAddress: models.Address{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@example.com",
			Phone:     "555-0100",
			Street:    "1 Main St",
			City:      "Springfield",
			State:     "IL",
			ZipCode:   "62701",
			Country:   "US",
		},
		PaymentMethod: method,
	})
}

func (s *ServicesTestSuite) pay(order *models.Order) *models.Order {
	intent, err := s.payments.CreatePaymentIntent(s.ctx, s.customer.ID, &CreatePaymentIntentRequest{OrderID: order.ID})
	s.Require().NoError(err)
	paid, err := s.payments.ConfirmPayment(s.ctx, s.customer.ID, &ConfirmPaymentRequest{OrderID: order.ID, PaymentIntentID: intent.PaymentID})
	s.Require().NoError(err)
	s.Require().Equal(models.PaymentStatusPaid, paid.PaymentInfo.PaymentStatus)
	return paid
}

// restockFailingStore fails every stock increase, inside transactions too.
type restockFailingStore struct {
	repository.Store
}

func (f restockFailingStore) Products() repository.ProductRepository {
	return restockFailingProducts{f.Store.Products()}
}

func (f restockFailingStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return f.Store.Transaction(ctx, func(tx repository.Store) error {
		return fn(restockFailingStore{tx})
	})
}

type restockFailingProducts struct {
	repository.ProductRepository
}

func (p restockFailingProducts) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	if delta > 0 {
		return errors.New("connection reset")
	}
	return p.ProductRepository.AdjustStock(ctx, id, delta)
}

type recordingProvider struct {
	StubPaymentProvider
	refunds []string
	fail    error
}

func (p *recordingProvider) Refund(ctx context.Context, intentID string, amount float64) error {
	p.refunds = append(p.refunds, intentID)
	return p.fail
}

func (s *ServicesTestSuite) stock(product *models.Product) *models.Product {
	p, err := s.store.Products().FindByID(s.ctx, product.ID)
	s.Require().NoError(err)
	return p
}

func (s *ServicesTestSuite) TestAddToCartMergesLinesAndFreezesPrice() {
	product := s.createProduct(s.vendor, "Oxford Shirt", 20, 10, 5)

	s.addToCart(s.customer, product, 2)
	s.addToCart(s.customer, product, 1)

	product.Price = 99
	s.Require().NoError(s.store.Products().Save(s.ctx, product))

	cart, err := s.carts.GetCart(s.ctx, s.customer.ID)
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)
	s.Equal(3, cart.Items[0].Quantity)
	s.Equal(20.0, cart.Items[0].Price)
	s.Equal(99.0, cart.Items[0].Product.Price)

	summary, err := s.carts.Summary(s.ctx, s.customer.ID)
	s.Require().NoError(err)
	s.InDelta(60.0, summary.Subtotal, 1e-9)
	s.InDelta(5.0, summary.ShippingCost, 1e-9)
}

func (s *ServicesTestSuite) TestAddToCartRejectsUnavailableAndShortStock() {
	product := s.createProduct(s.vendor, "Wool Coat", 150, 2, 0)

	_, err := s.carts.AddItem(s.ctx, s.customer.ID, &AddToCartRequest{ProductID: product.ID, Quantity: 3})
	s.ErrorIs(err, ErrInsufficientStock)

	s.addToCart(s.customer, product, 2)
	_, err = s.carts.AddItem(s.ctx, s.customer.ID, &AddToCartRequest{ProductID: product.ID, Quantity: 1})
	s.ErrorIs(err, ErrInsufficientStock)

	product.Status = models.ProductStatusInactive
	s.Require().NoError(s.store.Products().Save(s.ctx, product))
	_, err = s.carts.AddItem(s.ctx, s.customer.ID, &AddToCartRequest{ProductID: product.ID, Quantity: 1})
	s.ErrorIs(err, ErrInvalidState)

	_, err = s.carts.AddItem(s.ctx, s.customer.ID, &AddToCartRequest{ProductID: uuid.New(), Quantity: 1})
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServicesTestSuite) TestGetCartDropsStaleLines() {
	kept := s.createProduct(s.vendor, "Scarf", 15, 5, 0)
	dropped := s.createProduct(s.vendor, "Belt", 25, 5, 0)
	s.addToCart(s.customer, kept, 1)
	s.addToCart(s.customer, dropped, 1)

	dropped.IsActive = false
	s.Require().NoError(s.store.Products().Save(s.ctx, dropped))

	cart, err := s.carts.GetCart(s.ctx, s.customer.ID)
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)
	s.Equal(kept.ID, cart.Items[0].ProductID)
	s.Equal(1, cart.TotalItems)
}

func (s *ServicesTestSuite) TestUpdateAndRemoveCartItems() {
	product := s.createProduct(s.vendor, "Loafers", 80, 4, 0)
	s.addToCart(s.customer, product, 1)

	cart, err := s.carts.GetCart(s.ctx, s.customer.ID)
	s.Require().NoError(err)
	itemID := cart.Items[0].ID

	_, err = s.carts.UpdateItem(s.ctx, s.customer.ID, itemID, 0)
	s.ErrorIs(err, ErrInvalidState)
	_, err = s.carts.UpdateItem(s.ctx, s.customer.ID, itemID, 5)
	s.ErrorIs(err, ErrInsufficientStock)
	_, err = s.carts.UpdateItem(s.ctx, s.customer.ID, uuid.New(), 1)
	s.ErrorIs(err, ErrNotFound)

	cart, err = s.carts.UpdateItem(s.ctx, s.customer.ID, itemID, 4)
	s.Require().NoError(err)
	s.Equal(4, cart.Items[0].Quantity)

	cart, err = s.carts.RemoveItem(s.ctx, s.customer.ID, itemID)
	s.Require().NoError(err)
	s.Empty(cart.Items)

	_, err = s.carts.RemoveItem(s.ctx, s.customer.ID, itemID)
	s.NoError(err)
}

func (s *ServicesTestSuite) TestCheckoutReservesStockAndClearsCart() {
	product := s.createProduct(s.vendor, "Denim Jacket", 20, 5, 5)
	s.addToCart(s.customer, product, 2)

	order, err := s.checkout(s.customer, models.PaymentMethodStripe)
	s.Require().NoError(err)

	s.Contains(order.OrderNumber, "CW")
	s.Equal(models.OrderStatusPending, order.Status)
	s.Equal(models.PaymentStatusPending, order.PaymentInfo.PaymentStatus)
	s.Require().Len(order.StatusHistory, 1)
	s.Equal(models.OrderStatusPending, order.StatusHistory[0].Status)
	s.Equal(order.ShippingAddress, order.BillingAddress)

	s.InDelta(40.0, order.Summary.Subtotal, 1e-9)
	s.InDelta(5.0, order.Summary.ShippingCost, 1e-9)
	s.InDelta(3.2, order.Summary.Tax, 1e-9)
	s.InDelta(48.2, order.Summary.Total, 1e-9)

	s.Require().Len(order.Items, 1)
	s.Equal(s.vendor.ID, order.Items[0].VendorID)
	s.Equal("Denim Jacket", order.Items[0].Name)

	p := s.stock(product)
	s.Equal(3, p.Inventory.Quantity)
	s.Equal(2, p.TotalSales)

	vendor, err := s.store.Vendors().FindByID(s.ctx, s.vendor.ID)
	s.Require().NoError(err)
	s.Equal(1, vendor.TotalOrders)
	s.InDelta(40.0, vendor.TotalSales, 1e-9)

	cart, err := s.carts.GetCart(s.ctx, s.customer.ID)
	s.Require().NoError(err)
	s.Empty(cart.Items)
}

func (s *ServicesTestSuite) TestCheckoutFailures() {
	_, err := s.checkout(s.customer, models.PaymentMethodStripe)
	s.ErrorIs(err, ErrInvalidState)

	_, err = s.orders.CreateOrder(s.ctx, s.customer.ID, &CreateOrderRequest{PaymentMethod: "barter"})
	s.Error(err)
	s.NotEmpty(utils.GetValidationErrors(err))
}

func (s *ServicesTestSuite) TestCheckoutWithShortStockChangesNothing() {
	first := s.createProduct(s.vendor, "Chinos", 45, 5, 0)
	second := s.createProduct(s.vendor, "Polo", 30, 2, 0)
	s.addToCart(s.customer, first, 1)
	s.addToCart(s.customer, second, 2)

	s.Require().NoError(s.store.Products().AdjustStock(s.ctx, second.ID, -1))

	_, err := s.checkout(s.customer, models.PaymentMethodStripe)
	s.ErrorIs(err, ErrInsufficientStock)
	s.Contains(err.Error(), "Polo")

	s.Equal(5, s.stock(first).Inventory.Quantity)
	total, err := s.store.Orders().Count(s.ctx, repository.OrderFilter{})
	s.Require().NoError(err)
	s.Zero(total)

	cart, err := s.store.Carts().FindByUserID(s.ctx, s.customer.ID)
	s.Require().NoError(err)
	s.Len(cart.Items, 2)
}

func (s *ServicesTestSuite) TestConcurrentCheckoutNeverOversells() {
	product := s.createProduct(s.vendor, "Limited Sneakers", 120, 3, 0)

	buyers := make([]*models.User, 6)
	for i := range buyers {
		buyers[i] = s.createUser(uuid.NewString()+"@example.com", models.UserRoleCustomer)
		s.addToCart(buyers[i], product, 1)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for _, buyer := range buyers {
		wg.Add(1)
		go func(u *models.User) {
			defer wg.Done()
			if _, err := s.checkout(u, models.PaymentMethodStripe); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else {
				assert.ErrorIs(s.T(), err, ErrInsufficientStock)
			}
		}(buyer)
	}
	wg.Wait()

	s.Equal(3, succeeded)
	p := s.stock(product)
	s.Equal(0, p.Inventory.Quantity)
	s.Equal(3, p.TotalSales)
}

func (s *ServicesTestSuite) TestCancelRestoresStockOnce() {
	product := s.createProduct(s.vendor, "Trench Coat", 200, 4, 10)
	s.addToCart(s.customer, product, 3)
	order, err := s.checkout(s.customer, models.PaymentMethodStripe)
	s.Require().NoError(err)
	s.Equal(1, s.stock(product).Inventory.Quantity)

	_, err = s.orders.CancelOrder(s.ctx, s.vendorUser.ID, order.ID, "not mine")
	s.ErrorIs(err, ErrForbidden)

	cancelled, err := s.orders.CancelOrder(s.ctx, s.customer.ID, order.ID, "changed my mind")
	s.Require().NoError(err)
	s.Equal(models.OrderStatusCancelled, cancelled.Status)
	s.Equal("changed my mind", cancelled.CancellationReason)
	s.NotNil(cancelled.CancelledAt)
	s.Equal(models.OrderStatusCancelled, cancelled.Items[0].Status)
	s.Len(cancelled.StatusHistory, 2)

	p := s.stock(product)
	s.Equal(4, p.Inventory.Quantity)
	s.Equal(0, p.TotalSales)

	vendor, err := s.store.Vendors().FindByID(s.ctx, s.vendor.ID)
	s.Require().NoError(err)
	s.Equal(0, vendor.TotalOrders)

	_, err = s.orders.CancelOrder(s.ctx, s.customer.ID, order.ID, "again")
	s.ErrorIs(err, ErrInvalidState)
	s.Equal(4, s.stock(product).Inventory.Quantity)
}

func (s *ServicesTestSuite) TestCancelPaidOrderRefunds() {
	product := s.createProduct(s.vendor, "Cashmere Sweater", 90, 2, 0)
	s.addToCart(s.customer, product, 1)
	order, err := s.checkout(s.customer, models.PaymentMethodStripe)
	s.Require().NoError(err)

	intent, err := s.payments.CreatePaymentIntent(s.ctx, s.customer.ID, &CreatePaymentIntentRequest{OrderID: order.ID})
	s.Require().NoError(err)
	s.InDelta(order.Summary.Total, intent.Amount, 1e-9)

	paid, err := s.payments.ConfirmPayment(s.ctx, s.customer.ID, &ConfirmPaymentRequest{OrderID: order.ID, PaymentIntentID: intent.PaymentID})
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusPaid, paid.PaymentInfo.PaymentStatus)
	s.NotNil(paid.PaymentInfo.PaidAt)

	_, err = s.payments.CreatePaymentIntent(s.ctx, s.customer.ID, &CreatePaymentIntentRequest{OrderID: order.ID})
	s.ErrorIs(err, ErrInvalidState)

	cancelled, err := s.orders.CancelOrder(s.ctx, s.customer.ID, order.ID, "")
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusRefunded, cancelled.PaymentInfo.PaymentStatus)
	s.InDelta(order.Summary.Total, cancelled.RefundAmount, 1e-9)
}

func (s *ServicesTestSuite) TestCancelRollsBackWhenRestockFails() {
	product := s.createProduct(s.vendor, "Wool Scarf", 25, 4, 0)
	s.addToCart(s.customer, product, 2)
	order, err := s.checkout(s.customer, models.PaymentMethodStripe)
	s.Require().NoError(err)
	s.pay(order)

	failing := restockFailingStore{s.store}
	provider := &recordingProvider{}
	payments := NewPaymentService(failing, provider, config.PaymentConfig{Currency: "usd"})
	orders := NewOrderService(failing, NewOrderNumberGenerator(failing.Sequences(), "CW"), payments, nil)

	_, err = orders.CancelOrder(s.ctx, s.customer.ID, order.ID, "changed my mind")
	s.Require().Error(err)
	s.Empty(provider.refunds)

	stored, err := s.store.Orders().FindByID(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusPending, stored.Status)
	s.Equal(models.PaymentStatusPaid, stored.PaymentInfo.PaymentStatus)
	s.Zero(stored.RefundAmount)
	s.Len(stored.StatusHistory, 1)
	s.Equal(2, s.stock(product).Inventory.Quantity)

	vendor, err := s.store.Vendors().FindByID(s.ctx, s.vendor.ID)
	s.Require().NoError(err)
	s.Equal(1, vendor.TotalOrders)
}

func (s *ServicesTestSuite) TestCancelKeepsRefundPendingWhenGatewayFails() {
	product := s.createProduct(s.vendor, "Leather Belt", 40, 3, 0)
	s.addToCart(s.customer, product, 1)
	order, err := s.checkout(s.customer, models.PaymentMethodStripe)
	s.Require().NoError(err)
	paid := s.pay(order)

	provider := &recordingProvider{fail: errors.New("gateway timeout")}
	payments := NewPaymentService(s.store, provider, config.PaymentConfig{Currency: "usd"})
	orders := NewOrderService(s.store, NewOrderNumberGenerator(s.store.Sequences(), "CW"), payments, nil)

	cancelled, err := orders.CancelOrder(s.ctx, s.customer.ID, order.ID, "found it cheaper")
	s.Require().NoError(err)
	s.Equal(models.OrderStatusCancelled, cancelled.Status)
	s.Equal(models.PaymentStatusRefundPending, cancelled.PaymentInfo.PaymentStatus)
	s.Zero(cancelled.RefundAmount)
	s.Equal([]string{paid.PaymentInfo.TransactionID}, provider.refunds)
	s.Equal(3, s.stock(product).Inventory.Quantity)

	pending := models.PaymentStatusRefundPending
	listed, total, err := orders.ListOrders(s.ctx, repository.OrderFilter{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 10},
		PaymentStatus:    &pending,
	})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(order.ID, listed[0].ID)

	_, err = orders.RetryRefund(s.ctx, order.ID)
	s.Error(err)

	provider.fail = nil
	refunded, err := orders.RetryRefund(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusRefunded, refunded.PaymentInfo.PaymentStatus)
	s.InDelta(order.Summary.Total, refunded.RefundAmount, 1e-9)
	s.Len(provider.refunds, 3)

	_, err = orders.RetryRefund(s.ctx, order.ID)
	s.ErrorIs(err, ErrInvalidState)
	s.Len(provider.refunds, 3)
	s.Equal(3, s.stock(product).Inventory.Quantity)
}

func (s *ServicesTestSuite) TestOrderSummaryFrozenAfterPriceChange() {
	product := s.createProduct(s.vendor, "Field Jacket", 50, 5, 7)
	s.addToCart(s.customer, product, 2)
	order, err := s.checkout(s.customer, models.PaymentMethodStripe)
	s.Require().NoError(err)

	current := s.stock(product)
	current.Price = 80
	current.Shipping.ShippingCost = 15
	s.Require().NoError(s.store.Products().Save(s.ctx, current))

	stored, err := s.orders.GetOrder(s.ctx, s.customer.ID, false, order.ID)
	s.Require().NoError(err)
	s.InDelta(100.0, stored.Summary.Subtotal, 1e-9)
	s.InDelta(7.0, stored.Summary.ShippingCost, 1e-9)
	s.InDelta(8.0, stored.Summary.Tax, 1e-9)
	s.InDelta(115.0, stored.Summary.Total, 1e-9)
	s.InDelta(50.0, stored.Items[0].Price, 1e-9)
	s.Equal(order.Summary, stored.Summary)
}

func (s *ServicesTestSuite) TestStatusLifecycle() {
	product := s.createProduct(s.vendor, "Boots", 110, 3, 0)
	s.addToCart(s.customer, product, 1)
	order, err := s.checkout(s.customer, models.PaymentMethodCOD)
	s.Require().NoError(err)

	_, err = s.orders.ChangeStatus(s.ctx, s.adminUser.ID, nil, order.ID, &UpdateOrderStatusRequest{Status: models.OrderStatusDelivered})
	s.ErrorIs(err, ErrInvalidState)
	_, err = s.orders.ChangeStatus(s.ctx, s.adminUser.ID, nil, order.ID, &UpdateOrderStatusRequest{Status: "lost"})
	s.ErrorIs(err, ErrInvalidState)

	for _, status := range []models.OrderStatus{models.OrderStatusProcessing, models.OrderStatusShipped} {
		_, err = s.orders.ChangeStatus(s.ctx, s.adminUser.ID, nil, order.ID, &UpdateOrderStatusRequest{Status: status, TrackingNumber: "1Z999"})
		s.Require().NoError(err)
	}

	_, err = s.orders.CancelOrder(s.ctx, s.customer.ID, order.ID, "too late")
	s.ErrorIs(err, ErrInvalidState)

	delivered, err := s.orders.ChangeStatus(s.ctx, s.adminUser.ID, nil, order.ID, &UpdateOrderStatusRequest{Status: models.OrderStatusDelivered})
	s.Require().NoError(err)
	s.Equal(models.OrderStatusDelivered, delivered.Status)
	s.NotNil(delivered.DeliveredAt)
	s.Equal(models.PaymentStatusPaid, delivered.PaymentInfo.PaymentStatus)
	s.Equal("1Z999", delivered.Items[0].TrackingNumber)
	s.Len(delivered.StatusHistory, 4)

	s.Equal(2, s.stock(product).Inventory.Quantity)
}

func (s *ServicesTestSuite) TestVendorScopedStatusChange() {
	otherOwner := s.createUser("other@example.com", models.UserRoleVendor)
	other := s.createVendor(otherOwner, "Vintage Finds", models.VendorStatusApproved)

	mine := s.createProduct(s.vendor, "Silk Tie", 35, 5, 0)
	theirs := s.createProduct(other, "Old Watch", 300, 1, 0)
	s.addToCart(s.customer, mine, 1)
	s.addToCart(s.customer, theirs, 1)
	order, err := s.checkout(s.customer, models.PaymentMethodStripe)
	s.Require().NoError(err)

	stranger := s.createUser("stranger@example.com", models.UserRoleVendor)
	s.createVendor(stranger, "Nobody", models.VendorStatusApproved)
	_, err = s.vendors.UpdateOrderStatus(s.ctx, stranger.ID, order.ID, &UpdateOrderStatusRequest{Status: models.OrderStatusProcessing})
	s.ErrorIs(err, ErrForbidden)

	updated, err := s.vendors.UpdateOrderStatus(s.ctx, s.vendorUser.ID, order.ID, &UpdateOrderStatusRequest{Status: models.OrderStatusProcessing})
	s.Require().NoError(err)
	for _, item := range updated.Items {
		if item.VendorID == s.vendor.ID {
			s.Equal(models.OrderStatusProcessing, item.Status)
		} else {
			s.Equal(models.OrderStatusPending, item.Status)
		}
	}

	orders, total, err := s.vendors.GetOrders(s.ctx, otherOwner.ID, utils.PaginationParams{Page: 1, Limit: 10}, nil)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(order.ID, orders[0].ID)
}

func (s *ServicesTestSuite) TestOrderVisibility() {
	product := s.createProduct(s.vendor, "Cap", 12, 5, 0)
	s.addToCart(s.customer, product, 1)
	order, err := s.checkout(s.customer, models.PaymentMethodStripe)
	s.Require().NoError(err)

	_, err = s.orders.GetOrder(s.ctx, s.vendorUser.ID, false, order.ID)
	s.ErrorIs(err, ErrForbidden)
	_, err = s.orders.GetOrder(s.ctx, s.adminUser.ID, true, order.ID)
	s.NoError(err)
	_, err = s.orders.GetOrder(s.ctx, s.customer.ID, false, uuid.New())
	s.ErrorIs(err, ErrNotFound)

	orders, total, err := s.orders.MyOrders(s.ctx, s.customer.ID, utils.PaginationParams{Page: 1, Limit: 10}, nil)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(order.OrderNumber, orders[0].OrderNumber)
}

func (s *ServicesTestSuite) TestProductLifecycle() {
	pendingOwner := s.createUser("pending@example.com", models.UserRoleCustomer)
	s.createVendor(pendingOwner, "Pending Shop", models.VendorStatusPending)

	req := &CreateProductRequest{
		CategoryID:  s.category.ID,
		Name:        "Linen Shirt",
		Description: "Breathable linen for summer",
		Price:       49.5,
		Inventory:   InventoryInput{Quantity: 10},
		Tags:        []string{"summer", "linen"},
	}

	_, err := s.products.CreateProduct(s.ctx, pendingOwner.ID, req)
	s.ErrorIs(err, ErrForbidden)

	product, err := s.products.CreateProduct(s.ctx, s.vendorUser.ID, req)
	s.Require().NoError(err)
	s.Regexp(`^CLA-\d+$`, product.SKU)
	s.Equal("linen-shirt", product.Slug)
	s.Equal(models.ProductStatusActive, product.Status)
	s.Equal(models.DefaultLowStockThreshold, product.Inventory.LowStockThreshold)

	category, err := s.store.Categories().FindByID(s.ctx, s.category.ID)
	s.Require().NoError(err)
	s.Equal(1, category.ProductCount)

	name := "Linen Shirt Deluxe"
	_, err = s.products.UpdateProduct(s.ctx, s.customer.ID, product.ID, &UpdateProductRequest{Name: &name})
	s.ErrorIs(err, ErrForbidden)
	updated, err := s.products.UpdateProduct(s.ctx, s.vendorUser.ID, product.ID, &UpdateProductRequest{Name: &name})
	s.Require().NoError(err)
	s.Equal("linen-shirt-deluxe", updated.Slug)

	s.Require().NoError(s.products.DeleteProduct(s.ctx, s.vendorUser.ID, product.ID))
	category, err = s.store.Categories().FindByID(s.ctx, s.category.ID)
	s.Require().NoError(err)
	s.Equal(0, category.ProductCount)

	_, err = s.products.GetProduct(s.ctx, product.ID, nil, false)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServicesTestSuite) TestCreateProductSKUsUniqueWithinOneMillisecond() {
	fixed := time.UnixMilli(1791980790883)
	s.products.now = func() time.Time { return fixed }

	req := &CreateProductRequest{
		CategoryID:  s.category.ID,
		Name:        "Gift Wrap",
		Description: "Complimentary wrapping for any order",
		Price:       0,
		Inventory:   InventoryInput{Quantity: 100},
	}

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		product, err := s.products.CreateProduct(s.ctx, s.vendorUser.ID, req)
		s.Require().NoError(err)
		s.Regexp(`^CLA-1791980790883\d{4,}$`, product.SKU)
		s.False(seen[product.SKU], product.SKU)
		seen[product.SKU] = true
		s.Zero(product.Price)
	}

	negative := *req
	negative.Price = -1
	_, err := s.products.CreateProduct(s.ctx, s.vendorUser.ID, &negative)
	s.Error(err)
	s.NotEmpty(utils.GetValidationErrors(err))
}

func (s *ServicesTestSuite) TestGetProductCountsViewsAndFindsRelated() {
	main := s.createProduct(s.vendor, "Blazer", 120, 3, 0)
	for i := 0; i < 10; i++ {
		s.createProduct(s.vendor, "Related "+uuid.NewString()[:4], 50, 1, 0)
	}
	hidden := s.createProduct(s.vendor, "Draft Vest", 60, 1, 0)
	hidden.Status = models.ProductStatusDraft
	s.Require().NoError(s.store.Products().Save(s.ctx, hidden))

	detail, err := s.products.GetProduct(s.ctx, main.ID, nil, false)
	s.Require().NoError(err)
	s.Equal(int64(1), detail.ViewCount)
	s.Len(detail.Related, models.MaxRelatedProducts)
	for _, r := range detail.Related {
		s.NotEqual(main.ID, r.ID)
		s.NotEqual(hidden.ID, r.ID)
	}

	_, err = s.products.GetProduct(s.ctx, hidden.ID, &s.customer.ID, false)
	s.ErrorIs(err, ErrNotFound)
	_, err = s.products.GetProduct(s.ctx, hidden.ID, &s.vendorUser.ID, false)
	s.NoError(err)
}

func (s *ServicesTestSuite) TestSearchResolvesCategorySlug() {
	s.createProduct(s.vendor, "Flannel Shirt", 40, 3, 0)

	products, total, err := s.products.SearchProducts(s.ctx, ProductSearchParams{
		PaginationParams: utils.PaginationParams{Page: 1, Category: s.category.Slug},
	})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Len(products, 1)

	products, total, err = s.products.SearchProducts(s.ctx, ProductSearchParams{
		PaginationParams: utils.PaginationParams{Page: 1, Category: "no-such-category"},
	})
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(products)
}

func (s *ServicesTestSuite) TestReviewsOnePerUser() {
	product := s.createProduct(s.vendor, "Gloves", 25, 5, 0)

	reviewed, err := s.products.AddReview(s.ctx, s.customer.ID, product.ID, &AddReviewRequest{Rating: 4, Comment: "Warm"})
	s.Require().NoError(err)
	s.Equal(1, reviewed.Rating.Count)
	s.False(reviewed.Reviews[0].IsVerifiedPurchase)

	_, err = s.products.AddReview(s.ctx, s.customer.ID, product.ID, &AddReviewRequest{Rating: 5})
	s.ErrorIs(err, ErrInvalidState)

	reviewed, err = s.products.AddReview(s.ctx, s.vendorUser.ID, product.ID, &AddReviewRequest{Rating: 2})
	s.Require().NoError(err)
	s.InDelta(3.0, reviewed.Rating.Average, 1e-9)

	_, err = s.products.AddReview(s.ctx, s.adminUser.ID, product.ID, &AddReviewRequest{Rating: 6})
	s.NotEmpty(utils.GetValidationErrors(err))
}

func (s *ServicesTestSuite) TestVendorApplicationAndApproval() {
	applicant := s.createUser("applicant@example.com", models.UserRoleCustomer)
	req := &VendorApplicationRequest{
		BusinessName:        "Retro Rack",
		BusinessDescription: "Curated vintage clothing",
		BusinessPhone:       "555-0101",
		BusinessEmail:       "Shop@Retro.example",
	}

	vendor, err := s.vendors.Apply(s.ctx, applicant.ID, req)
	s.Require().NoError(err)
	s.Equal(models.VendorStatusPending, vendor.Status)
	s.Equal(models.DefaultVendorCommission, vendor.Commission)
	s.Equal("shop@retro.example", vendor.BusinessEmail)

	_, err = s.vendors.Apply(s.ctx, applicant.ID, req)
	s.ErrorIs(err, ErrConflict)

	pending, total, err := s.admin.GetPendingVendors(s.ctx, utils.PaginationParams{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(vendor.ID, pending[0].ID)

	approved, err := s.admin.UpdateVendorStatus(s.ctx, s.adminUser.ID, vendor.ID, &UpdateVendorStatusRequest{Status: models.VendorStatusApproved})
	s.Require().NoError(err)
	s.Equal(models.VendorStatusApproved, approved.Status)
	s.Require().NotNil(approved.ApprovedBy)
	s.Equal(s.adminUser.ID, *approved.ApprovedBy)

	user, err := s.store.Users().FindByID(s.ctx, applicant.ID)
	s.Require().NoError(err)
	s.Equal(models.UserRoleVendor, user.Role)

	entries := s.store.AuditEntries()
	s.Require().NotEmpty(entries)
	s.Equal("UPDATE_VENDOR_STATUS", entries[len(entries)-1].Action)

	_, err = s.admin.UpdateVendorStatus(s.ctx, s.adminUser.ID, vendor.ID, &UpdateVendorStatusRequest{Status: "archived"})
	s.ErrorIs(err, ErrInvalidState)
}

func (s *ServicesTestSuite) TestVendorStats() {
	product := s.createProduct(s.vendor, "Parka", 100, 3, 0)
	s.createProduct(s.vendor, "Beanie", 10, 50, 0)
	s.addToCart(s.customer, product, 2)
	_, err := s.checkout(s.customer, models.PaymentMethodStripe)
	s.Require().NoError(err)

	stats, err := s.vendors.GetStats(s.ctx, s.vendorUser.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), stats.TotalProducts)
	s.Equal(int64(2), stats.ActiveProducts)
	s.Equal(int64(1), stats.LowStockProducts)
	s.Equal(int64(1), stats.TotalOrders)
	s.Equal(int64(1), stats.PendingOrders)
	s.Equal(int64(2), stats.TotalUnitsSold)
	s.InDelta(200.0, stats.TotalRevenue, 1e-9)

	_, err = s.vendors.GetStats(s.ctx, s.customer.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServicesTestSuite) TestDashboardStats() {
	s.createVendor(s.createUser("p@example.com", models.UserRoleCustomer), "Waiting", models.VendorStatusPending)
	s.createProduct(s.vendor, "Tote", 30, 3, 0)

	stats, err := s.admin.GetDashboardStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(4), stats.TotalUsers)
	s.Equal(int64(2), stats.TotalVendors)
	s.Equal(int64(1), stats.PendingVendors)
	s.Equal(int64(1), stats.TotalProducts)
	s.Zero(stats.TotalOrders)
}

func (s *ServicesTestSuite) TestRegisterLoginRefresh() {
	req := &RegisterRequest{FirstName: "Grace", LastName: "Hopper", Email: "Grace@Example.com", Password: "Navy1234"}

	registered, err := s.auth.Register(s.ctx, req)
	s.Require().NoError(err)
	s.Equal("grace@example.com", registered.User.Email)
	s.Equal(models.UserRoleCustomer, registered.User.Role)
	s.NotEmpty(registered.AccessToken)

	_, err = s.auth.Register(s.ctx, req)
	s.ErrorIs(err, ErrConflict)

	_, err = s.auth.Login(s.ctx, &LoginRequest{Email: "grace@example.com", Password: "wrong"})
	s.ErrorIs(err, ErrUnauthenticated)

	loggedIn, err := s.auth.Login(s.ctx, &LoginRequest{Email: "GRACE@example.com", Password: "Navy1234"})
	s.Require().NoError(err)
	s.NotNil(loggedIn.User.LastLoginAt)

	refreshed, err := s.auth.RefreshToken(s.ctx, loggedIn.RefreshToken)
	s.Require().NoError(err)
	s.Equal(registered.User.ID, refreshed.User.ID)

	_, err = s.auth.RefreshToken(s.ctx, loggedIn.AccessToken)
	s.ErrorIs(err, ErrUnauthenticated)

	s.Require().NoError(s.auth.ChangePassword(s.ctx, registered.User.ID, &ChangePasswordRequest{CurrentPassword: "Navy1234", NewPassword: "Cobol5678"}))
	_, err = s.auth.Login(s.ctx, &LoginRequest{Email: "grace@example.com", Password: "Cobol5678"})
	s.NoError(err)
}

func (s *ServicesTestSuite) TestAddressDefaults() {
	addr := models.Address{
		FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Phone: "555",
		Street: "1 Main", City: "Town", State: "ST", ZipCode: "00001", Country: "US",
	}

	user, err := s.users.AddAddress(s.ctx, s.customer.ID, &AddAddressRequest{Address: addr, Label: "Home"})
	s.Require().NoError(err)
	s.Require().Len(user.Addresses, 1)
	s.True(user.Addresses[0].IsDefault)

	user, err = s.users.AddAddress(s.ctx, s.customer.ID, &AddAddressRequest{Address: addr, Label: "Work", IsDefault: true})
	s.Require().NoError(err)
	s.False(user.Addresses[0].IsDefault)
	s.Equal("Work", user.DefaultAddress().Label)

	_, err = s.users.SetUserActive(s.ctx, s.adminUser.ID, s.adminUser.ID, false)
	s.ErrorIs(err, ErrInvalidState)
}

func TestServicesTestSuite(t *testing.T) {
	suite.Run(t, new(ServicesTestSuite))
}

func TestErrorUnwrapsToKind(t *testing.T) {
	err := insufficientStock("Mug")
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, "insufficient stock for Mug", err.Error())
	assert.ErrorIs(t, lookupErr(repository.ErrNotFound, "order"), ErrNotFound)
}
