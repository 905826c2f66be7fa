// Package pricing derives order and cart totals from line items.
package pricing

import (
	"github.com/shopspring/decimal"
)

// TaxRate is applied to the subtotal of every cart and order.
const TaxRate = 0.08

type Line struct {
	UnitPrice    float64
	Quantity     int
	ShippingCost float64
	FreeShipping bool
}

// Summary holds full-precision figures. Use Display for presentation.
type Summary struct {
	Subtotal     float64 `json:"subtotal"`
	ShippingCost float64 `json:"shipping_cost"`
	Tax          float64 `json:"tax"`
	Discount     float64 `json:"discount"`
	Total        float64 `json:"total"`
	ItemCount    int     `json:"item_count"`
}

// DisplaySummary is Summary truncated to two decimals for clients.
type DisplaySummary struct {
	Subtotal     string `json:"subtotal"`
	ShippingCost string `json:"shipping_cost"`
	Tax          string `json:"tax"`
	Discount     string `json:"discount"`
	Total        string `json:"total"`
	ItemCount    int    `json:"item_count"`
}

// Summarize computes subtotal, shipping, tax and total. Shipping is a flat
// charge per line that is not free-shipping. Discounts are not applied.
func Summarize(lines []Line) Summary {
	var s Summary
	for _, l := range lines {
		s.Subtotal += l.UnitPrice * float64(l.Quantity)
		if !l.FreeShipping {
			s.ShippingCost += l.ShippingCost
		}
		s.ItemCount += l.Quantity
	}
	s.Tax = s.Subtotal * TaxRate
	s.Total = s.Subtotal + s.ShippingCost + s.Tax - s.Discount
	return s
}

func (s Summary) Display() DisplaySummary {
	return DisplaySummary{
		Subtotal:     FormatAmount(s.Subtotal),
		ShippingCost: FormatAmount(s.ShippingCost),
		Tax:          FormatAmount(s.Tax),
		Discount:     FormatAmount(s.Discount),
		Total:        FormatAmount(s.Total),
		ItemCount:    s.ItemCount,
	}
}

// FormatAmount truncates v to two decimals.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).Truncate(2).StringFixed(2)
}
