// internal/models/vendor.go
package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultVendorCommission = 10.0

type Vendor struct {
	BaseModel
	UserID              uuid.UUID       `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	BusinessName        string          `json:"business_name" gorm:"size:100;not null"`
	BusinessDescription string          `json:"business_description" gorm:"type:text"`
	BusinessLicense     string          `json:"business_license,omitempty" gorm:"size:100"`
	TaxID               string          `json:"tax_id,omitempty" gorm:"size:50"`
	BusinessAddress     BusinessAddress `json:"business_address" gorm:"type:jsonb;serializer:json"`
	BusinessPhone       string          `json:"business_phone" gorm:"size:30"`
	BusinessEmail       string          `json:"business_email" gorm:"size:255"`
	Logo                *Image          `json:"logo,omitempty" gorm:"type:jsonb;serializer:json"`
	Banner              *Image          `json:"banner,omitempty" gorm:"type:jsonb;serializer:json"`
	Status              VendorStatus    `json:"status" gorm:"type:varchar(20);not null;index"`
	ApprovedBy          *uuid.UUID      `json:"approved_by,omitempty" gorm:"type:uuid"`
	ApprovedAt          *time.Time      `json:"approved_at,omitempty"`
	RejectionReason     string          `json:"rejection_reason,omitempty" gorm:"type:text"`
	Rating              Rating          `json:"rating" gorm:"embedded;embeddedPrefix:rating_"`
	TotalSales          float64         `json:"total_sales" gorm:"not null;default:0"`
	TotalOrders         int             `json:"total_orders" gorm:"not null;default:0"`
	Commission          float64         `json:"commission" gorm:"not null"`
	PaymentInfo         PayoutInfo      `json:"-" gorm:"type:jsonb;serializer:json"`
	SocialMedia         SocialLinks     `json:"social_media" gorm:"type:jsonb;serializer:json"`
	IsActive            bool            `json:"is_active" gorm:"not null"`
}

type BusinessAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

type PayoutInfo struct {
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	RoutingNumber string `json:"routing_number,omitempty"`
	PayPalEmail   string `json:"paypal_email,omitempty"`
}

type SocialLinks struct {
	Website   string `json:"website,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
}

func (v *Vendor) IsApproved() bool {
	return v.Status == VendorStatusApproved && v.IsActive
}

// SKUPrefix is the first three letters of the business name, upper case.
func (v *Vendor) SKUPrefix() string {
	var prefix []rune
	for _, r := range v.BusinessName {
		if len(prefix) == 3 {
			break
		}
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			prefix = append(prefix, r)
		}
	}
	if len(prefix) == 0 {
		return "VND"
	}
	return string(prefix)
}

// ApplyStatus moves the vendor to status on behalf of an admin.
func (v *Vendor) ApplyStatus(status VendorStatus, adminID uuid.UUID, reason string, at time.Time) {
	v.Status = status
	switch status {
	case VendorStatusApproved:
		v.ApprovedBy = &adminID
		v.ApprovedAt = &at
		v.RejectionReason = ""
	case VendorStatusRejected:
		v.RejectionReason = reason
	}
}
