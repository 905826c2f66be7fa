package services

import (
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/marketplace-backend/internal/config"
	"github.com/javajoker/marketplace-backend/internal/models"
)

func TestOrderConfirmationEmail(t *testing.T) {
	cfg := &config.Config{
		Email:    config.EmailConfig{SMTPHost: "smtp.example.com", SMTPPort: "587", FromEmail: "noreply@example.com", FromName: "Classic Wardrobe"},
		Frontend: config.FrontendConfig{BaseURL: "https://shop.example.com"},
	}
	svc := NewNotificationService(cfg)

	var gotAddr string
	var gotTo []string
	var gotMsg string
	svc.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	order := &models.Order{
		OrderNumber: "CW17000000000001",
		Items:       []models.OrderItem{{Name: "Oxford Shirt", Quantity: 2}},
		Summary:     models.OrderSummary{Total: 48.2},
	}
	user := &models.User{FirstName: "Jane", Email: "jane@example.com"}

	require.NoError(t, svc.SendOrderConfirmation(order, user))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"jane@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Order Confirmation - CW17000000000001")
	assert.Contains(t, gotMsg, "2 x Oxford Shirt")
	assert.Contains(t, gotMsg, "48.20")
}

func TestEmailSkippedWithoutSMTP(t *testing.T) {
	svc := NewNotificationService(&config.Config{})
	svc.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}

	assert.NoError(t, svc.SendWelcomeEmail(&models.User{FirstName: "Jane", Email: "jane@example.com"}))
}

func TestVendorStatusEmailIncludesReason(t *testing.T) {
	svc := NewNotificationService(&config.Config{Email: config.EmailConfig{SMTPHost: "smtp.example.com", SMTPPort: "25"}})
	var gotMsg string
	svc.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotMsg = string(msg)
		return nil
	}

	vendor := &models.Vendor{BusinessName: "Classic Threads", Status: models.VendorStatusRejected, RejectionReason: "Missing tax id"}
	require.NoError(t, svc.SendVendorStatusUpdate(vendor, &models.User{FirstName: "Sam", Email: "sam@example.com"}))
	assert.True(t, strings.Contains(gotMsg, "Reason: Missing tax id"), gotMsg)
}
