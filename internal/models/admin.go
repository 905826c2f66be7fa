// internal/models/admin.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	NewValues    JSONB      `json:"new_values" gorm:"type:jsonb"`
	StatusCode   int        `json:"status_code"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Counter backs strictly increasing sequences such as order numbers.
type Counter struct {
	Name      string    `json:"name" gorm:"primaryKey;size:50"`
	Value     int64     `json:"value" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DashboardStats holds the platform-wide counts shown to admins.
type DashboardStats struct {
	TotalUsers     int64 `json:"total_users"`
	TotalVendors   int64 `json:"total_vendors"`
	TotalProducts  int64 `json:"total_products"`
	TotalOrders    int64 `json:"total_orders"`
	PendingVendors int64 `json:"pending_vendors"`
}

// VendorStats summarises one vendor's catalog and fulfilment activity.
type VendorStats struct {
	TotalProducts    int64   `json:"total_products"`
	ActiveProducts   int64   `json:"active_products"`
	LowStockProducts int64   `json:"low_stock_products"`
	TotalOrders      int64   `json:"total_orders"`
	PendingOrders    int64   `json:"pending_orders"`
	TotalRevenue     float64 `json:"total_revenue"`
	TotalUnitsSold   int64   `json:"total_units_sold"`
}
