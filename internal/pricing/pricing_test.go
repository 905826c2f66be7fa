package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeExample(t *testing.T) {
	s := Summarize([]Line{{UnitPrice: 20, Quantity: 2, ShippingCost: 5}})

	assert.InDelta(t, 40.00, s.Subtotal, 1e-9)
	assert.InDelta(t, 5.00, s.ShippingCost, 1e-9)
	assert.InDelta(t, 3.20, s.Tax, 1e-9)
	assert.InDelta(t, 48.20, s.Total, 1e-9)
	assert.Equal(t, 2, s.ItemCount)

	d := s.Display()
	assert.Equal(t, "40.00", d.Subtotal)
	assert.Equal(t, "5.00", d.ShippingCost)
	assert.Equal(t, "3.20", d.Tax)
	assert.Equal(t, "48.20", d.Total)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, Summary{}, s)
	assert.Equal(t, "0.00", s.Display().Total)
}

func TestSummarizeShippingPerLine(t *testing.T) {
	s := Summarize([]Line{
		{UnitPrice: 10, Quantity: 3, ShippingCost: 4},
		{UnitPrice: 15.5, Quantity: 1, ShippingCost: 9, FreeShipping: true},
		{UnitPrice: 1.25, Quantity: 4, ShippingCost: 2.5},
	})

	assert.InDelta(t, 50.5, s.Subtotal, 1e-9)
	assert.InDelta(t, 6.5, s.ShippingCost, 1e-9, "free-shipping lines add nothing and cost is not multiplied by quantity")
	assert.Equal(t, 8, s.ItemCount)
}

func TestSummarizeTotalsAreConsistent(t *testing.T) {
	lines := [][]Line{
		{{UnitPrice: 0.1, Quantity: 3, ShippingCost: 0.2}},
		{{UnitPrice: 19.99, Quantity: 7}, {UnitPrice: 3.33, Quantity: 3, ShippingCost: 1.11}},
		{{UnitPrice: 0, Quantity: 1, ShippingCost: 12}},
	}

	for _, l := range lines {
		s := Summarize(l)
		assert.Equal(t, s.Subtotal+s.ShippingCost+s.Tax, s.Total)
		assert.Equal(t, s.Subtotal*TaxRate, s.Tax)
	}
}

func TestFormatAmountTruncates(t *testing.T) {
	assert.Equal(t, "10.99", FormatAmount(10.999))
	assert.Equal(t, "3.20", FormatAmount(3.2))
	assert.Equal(t, "0.00", FormatAmount(0.004))
	assert.Equal(t, "120.00", FormatAmount(120))
}
