// internal/models/cart.go
package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type Cart struct {
	BaseModel
	UserID      uuid.UUID  `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	Items       []CartItem `json:"items" gorm:"type:jsonb;serializer:json"`
	TotalItems  int        `json:"total_items" gorm:"not null;default:0"`
	TotalAmount float64    `json:"total_amount" gorm:"not null;default:0"`
}

type CartItem struct {
	ID               uuid.UUID          `json:"id"`
	ProductID        uuid.UUID          `json:"product_id"`
	Quantity         int                `json:"quantity"`
	SelectedVariants []VariantSelection `json:"selected_variants,omitempty"`
	Price            float64            `json:"price"`
	AddedAt          time.Time          `json:"added_at"`
}

type VariantSelection struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// SameVariants compares two selections as sets of named choices.
func SameVariants(a, b []VariantSelection) bool {
	if len(a) != len(b) {
		return false
	}
	left, right := sortedVariants(a), sortedVariants(b)
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}

func sortedVariants(v []VariantSelection) []VariantSelection {
	out := make([]VariantSelection, len(v))
	copy(out, v)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// FindLine returns the index of the line for (productID, variants), or -1.
func (c *Cart) FindLine(productID uuid.UUID, variants []VariantSelection) int {
	for i, item := range c.Items {
		if item.ProductID == productID && SameVariants(item.SelectedVariants, variants) {
			return i
		}
	}
	return -1
}

func (c *Cart) FindItem(itemID uuid.UUID) int {
	for i, item := range c.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// RemoveItem drops the line with itemID and reports whether it existed.
func (c *Cart) RemoveItem(itemID uuid.UUID) bool {
	idx := c.FindItem(itemID)
	if idx < 0 {
		return false
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	c.Recalculate()
	return true
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Recalculate()
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Recalculate refreshes the cached totals from the line items.
func (c *Cart) Recalculate() {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	c.TotalItems = 0
	c.TotalAmount = 0
	for _, item := range c.Items {
		c.TotalItems += item.Quantity
		c.TotalAmount += item.Price * float64(item.Quantity)
	}
}

func (c *Cart) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(c.Items))
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, item := range c.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}
