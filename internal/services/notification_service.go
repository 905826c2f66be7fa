// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/marketplace-backend/internal/config"
	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/pricing"
)

type NotificationService struct {
	config *config.Config
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(config *config.Config) *NotificationService {
	return &NotificationService{
		config: config,
		send:   smtp.SendMail,
	}
}

func (s *NotificationService) SendWelcomeEmail(user *models.User) error {
	data := map[string]interface{}{
		"Name":         user.FirstName,
		"ShopURL":      s.config.Frontend.BaseURL,
		"PlatformName": s.config.Email.FromName,
	}
	return s.deliver(user.Email, "welcome", data)
}

func (s *NotificationService) SendOrderConfirmation(order *models.Order, user *models.User) error {
	data := map[string]interface{}{
		"Name":        user.FirstName,
		"OrderNumber": order.OrderNumber,
		"Items":       order.Items,
		"Total":       pricing.FormatAmount(order.Summary.Total),
		"OrderURL":    fmt.Sprintf("%s/orders/%s", s.config.Frontend.BaseURL, order.ID),
	}
	return s.deliver(user.Email, "order_confirmation", data)
}

func (s *NotificationService) SendOrderStatusUpdate(order *models.Order, user *models.User) error {
	data := map[string]interface{}{
		"Name":        user.FirstName,
		"OrderNumber": order.OrderNumber,
		"Status":      string(order.Status),
		"OrderURL":    fmt.Sprintf("%s/orders/%s", s.config.Frontend.BaseURL, order.ID),
	}
	return s.deliver(user.Email, "order_status", data)
}

func (s *NotificationService) SendVendorStatusUpdate(vendor *models.Vendor, user *models.User) error {
	data := map[string]interface{}{
		"Name":         user.FirstName,
		"BusinessName": vendor.BusinessName,
		"Status":       string(vendor.Status),
		"Reason":       vendor.RejectionReason,
		"DashboardURL": fmt.Sprintf("%s/vendor/dashboard", s.config.Frontend.BaseURL),
	}
	return s.deliver(user.Email, "vendor_status", data)
}

func (s *NotificationService) deliver(to, templateType string, data map[string]interface{}) error {
	tmpl := s.getEmailTemplate(templateType)

	subject, err := s.renderTemplate(tmpl.Subject, data)
	if err != nil {
		return fmt.Errorf("failed to render email subject: %w", err)
	}
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(to, subject, body)
}

// Helper methods
func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email not configured, skipping send")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return s.send(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"welcome": {
			Subject: "Welcome to {{.PlatformName}}",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Welcome {{.Name}}!</h2>
	<p>Thank you for joining {{.PlatformName}}. Start browsing our vendors' collections:</p>
	<a href="{{.ShopURL}}">Visit the shop</a>
</body>
</html>`,
		},
		"order_confirmation": {
			Subject: "Order Confirmation - {{.OrderNumber}}",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Thank you for your order, {{.Name}}!</h2>
	<p>Your order {{.OrderNumber}} has been received.</p>
	<ul>
	{{range .Items}}<li>{{.Quantity}} x {{.Name}}</li>{{end}}
	</ul>
	<p>Total: {{.Total}}</p>
	<a href="{{.OrderURL}}">View order</a>
</body>
</html>`,
		},
		"order_status": {
			Subject: "Order {{.OrderNumber}} is now {{.Status}}",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<p>Hello {{.Name}},</p>
	<p>The status of your order {{.OrderNumber}} changed to <strong>{{.Status}}</strong>.</p>
	<a href="{{.OrderURL}}">View order</a>
</body>
</html>`,
		},
		"vendor_status": {
			Subject: "Your vendor application is {{.Status}}",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<p>Hello {{.Name}},</p>
	<p>The status of {{.BusinessName}} is now <strong>{{.Status}}</strong>.</p>
	{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
	<a href="{{.DashboardURL}}">Open your dashboard</a>
</body>
</html>`,
		},
	}

	if template, exists := templates[templateType]; exists {
		return template
	}

	// Default template
	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
