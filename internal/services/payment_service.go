// internal/services/payment_service.go
package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"

	"github.com/javajoker/marketplace-backend/internal/config"
	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

// Intent statuses reported by a PaymentProvider.
const (
	IntentSucceeded      = "succeeded"
	IntentRequiresAction = "requires_action"
	IntentFailed         = "failed"
)

// PaymentProvider is the external gateway charging and refunding orders.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, order *models.Order, currency string) (*PaymentIntentResponse, error)
	IntentStatus(ctx context.Context, intentID string) (string, error)
	Refund(ctx context.Context, intentID string, amount float64) error
}

type PaymentIntentResponse struct {
	ClientSecret string  `json:"client_secret"`
	PaymentID    string  `json:"payment_id"`
	Status       string  `json:"status"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
}

type CreatePaymentIntentRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

type ConfirmPaymentRequest struct {
	OrderID         uuid.UUID `json:"order_id" validate:"required"`
	PaymentIntentID string    `json:"payment_intent_id" validate:"required"`
}

type PaymentService struct {
	store    repository.Store
	provider PaymentProvider
	currency string
	now      func() time.Time
}

// NewPaymentProvider returns the Stripe provider when a secret key is
// configured and the stub provider otherwise.
func NewPaymentProvider(cfg config.PaymentConfig) PaymentProvider {
	if cfg.StripeSecretKey == "" {
		logrus.Warn("Stripe is not configured, using stub payment provider")
		return StubPaymentProvider{}
	}
	stripe.Key = cfg.StripeSecretKey
	return StripePaymentProvider{}
}

func NewPaymentService(store repository.Store, provider PaymentProvider, cfg config.PaymentConfig) *PaymentService {
	currency := cfg.Currency
	if currency == "" {
		currency = "usd"
	}
	return &PaymentService{
		store:    store,
		provider: provider,
		currency: currency,
		now:      time.Now,
	}
}

func (s *PaymentService) loadPayableOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	return order, checkPayable(order, userID)
}

func checkPayable(order *models.Order, userID uuid.UUID) error {
	if !order.IsOwnedBy(userID) {
		return forbidden("you can not pay for this order")
	}
	if order.Status == models.OrderStatusCancelled {
		return invalidState("order is cancelled")
	}
	if order.PaymentInfo.PaymentStatus == models.PaymentStatusPaid {
		return invalidState("order is already paid")
	}
	if order.PaymentInfo.Method == models.PaymentMethodCOD {
		return invalidState("cash on delivery orders are paid on delivery")
	}
	return nil
}

// updatePayable re-reads the order under a row lock, checks it is still
// payable and saves the change made by apply.
func (s *PaymentService) updatePayable(ctx context.Context, userID, orderID uuid.UUID, apply func(*models.Order)) (*models.Order, error) {
	var order *models.Order
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		order, err = tx.Orders().LockByID(ctx, orderID)
		if err != nil {
			return lookupErr(err, "order")
		}
		if err := checkPayable(order, userID); err != nil {
			return err
		}
		apply(order)
		if err := tx.Orders().Save(ctx, order); err != nil {
			return fmt.Errorf("failed to update order payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *PaymentService) CreatePaymentIntent(ctx context.Context, userID uuid.UUID, req *CreatePaymentIntentRequest) (*PaymentIntentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	order, err := s.loadPayableOrder(ctx, userID, req.OrderID)
	if err != nil {
		return nil, err
	}

	intent, err := s.provider.CreateIntent(ctx, order, s.currency)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	_, err = s.updatePayable(ctx, userID, order.ID, func(o *models.Order) {
		o.PaymentInfo.TransactionID = intent.PaymentID
	})
	if err != nil {
		return nil, err
	}

	return intent, nil
}

func (s *PaymentService) ConfirmPayment(ctx context.Context, userID uuid.UUID, req *ConfirmPaymentRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := s.loadPayableOrder(ctx, userID, req.OrderID); err != nil {
		return nil, err
	}

	status, err := s.provider.IntentStatus(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	order, err := s.updatePayable(ctx, userID, req.OrderID, func(o *models.Order) {
		switch status {
		case IntentSucceeded:
			now := s.now()
			o.PaymentInfo.PaymentStatus = models.PaymentStatusPaid
			o.PaymentInfo.PaidAt = &now
			o.PaymentInfo.TransactionID = req.PaymentIntentID
		case IntentRequiresAction:
			o.PaymentInfo.PaymentStatus = models.PaymentStatusPending
		default:
			o.PaymentInfo.PaymentStatus = models.PaymentStatusFailed
		}
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_number":   order.OrderNumber,
		"payment_status": order.PaymentInfo.PaymentStatus,
	}).Info("Payment confirmation processed")

	return order, nil
}

// SettleRefund returns the full total of a refund-pending order through the
// provider and records it. A failed provider call leaves the order pending so
// the refund can be retried.
func (s *PaymentService) SettleRefund(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	if order.PaymentInfo.PaymentStatus != models.PaymentStatusRefundPending {
		return nil, invalidState("order has no pending refund")
	}

	if order.PaymentInfo.TransactionID != "" {
		if err := s.provider.Refund(ctx, order.PaymentInfo.TransactionID, order.Summary.Total); err != nil {
			return nil, fmt.Errorf("failed to process refund: %w", err)
		}
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		order, err = tx.Orders().LockByID(ctx, orderID)
		if err != nil {
			return lookupErr(err, "order")
		}
		if order.PaymentInfo.PaymentStatus != models.PaymentStatusRefundPending {
			return nil
		}
		order.MarkRefunded()
		if err := tx.Orders().Save(ctx, order); err != nil {
			return fmt.Errorf("failed to record refund: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_number":  order.OrderNumber,
		"refund_amount": order.RefundAmount,
	}).Info("Refund settled")

	return order, nil
}

// toCents converts a decimal amount to the smallest currency unit.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// StripePaymentProvider charges through Stripe PaymentIntents.
type StripePaymentProvider struct{}

func (StripePaymentProvider) CreateIntent(ctx context.Context, order *models.Order, currency string) (*PaymentIntentResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toCents(order.Summary.Total)),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("order_number", order.OrderNumber)
	params.AddMetadata("user_id", order.UserID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
		Amount:       order.Summary.Total,
		Currency:     currency,
	}, nil
}

func (StripePaymentProvider) IntentStatus(ctx context.Context, intentID string) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return "", err
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return IntentSucceeded, nil
	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusProcessing:
		return IntentRequiresAction, nil
	default:
		return IntentFailed, nil
	}
}

func (StripePaymentProvider) Refund(ctx context.Context, intentID string, amount float64) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Amount:        stripe.Int64(toCents(amount)),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.SetIdempotencyKey("refund_" + intentID)

	_, err := refund.New(params)
	return err
}

// StubPaymentProvider accepts every payment. Used when no gateway is
// configured and in tests.
type StubPaymentProvider struct{}

func (StubPaymentProvider) CreateIntent(ctx context.Context, order *models.Order, currency string) (*PaymentIntentResponse, error) {
	id, err := utils.GenerateReference("pi_")
	if err != nil {
		return nil, err
	}
	secret, err := utils.GenerateRandomString(32)
	if err != nil {
		return nil, err
	}

	return &PaymentIntentResponse{
		ClientSecret: id + "_secret_" + secret,
		PaymentID:    id,
		Status:       "requires_confirmation",
		Amount:       order.Summary.Total,
		Currency:     currency,
	}, nil
}

func (StubPaymentProvider) IntentStatus(ctx context.Context, intentID string) (string, error) {
	return IntentSucceeded, nil
}

func (StubPaymentProvider) Refund(ctx context.Context, intentID string, amount float64) error {
	logrus.WithFields(logrus.Fields{"payment_id": intentID, "amount": amount}).Info("Stub refund issued")
	return nil
}
