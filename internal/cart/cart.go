package cart

import "math"

// Line is one product+quantity entry in the cart. Everything except
// Quantity is a snapshot of the product at the time it was added.
type Line struct {
	ProductID int64   `json:"id"`
	Name      string  `json:"name"`
	FarmName  string  `json:"farmer"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Unit      string  `json:"unit"`
	Image     string  `json:"image"`
	Category  string  `json:"category"`
}

// ShippingFee is the flat fee applied to any non-empty cart.
const ShippingFee = 5.99

// Totals is the derived price breakdown; it is never persisted.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// TotalsFor derives the price breakdown for a set of lines, rounded to
// cents.
func TotalsFor(lines []Line) Totals {
	var subtotal float64
	for _, line := range lines {
		subtotal += line.Price * float64(line.Quantity)
	}
	subtotal = roundCents(subtotal)

	var shipping float64
	if subtotal > 0 {
		shipping = ShippingFee
	}
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    roundCents(subtotal + shipping),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
