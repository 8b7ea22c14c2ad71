package cart

import (
	"github.com/shopspring/decimal"

	"github.com/sparible/storefront/internal/apiclient"
)

// Line is a cart item joined with its product.
type Line struct {
	Product  apiclient.Product `json:"product"`
	Quantity int               `json:"quantity"`
}

// LineTotal is the effective price times quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.Product.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// DeliveryRule is the display-side delivery charge policy.
type DeliveryRule struct {
	FreeThreshold decimal.Decimal
	Charge        decimal.Decimal
}

// Summary holds the cart page totals.
type Summary struct {
	Subtotal             decimal.Decimal `json:"subtotal"`
	Discount             decimal.Decimal `json:"discount"`
	Delivery             decimal.Decimal `json:"delivery"`
	Total                decimal.Decimal `json:"total"`
	FreeDelivery         bool            `json:"free_delivery"`
	AmountToFreeDelivery decimal.Decimal `json:"amount_to_free_delivery"`
}

// Summarize totals the lines. Delivery is free at or above the threshold and
// an empty cart has no delivery charge.
func Summarize(lines []Line, rule DeliveryRule) Summary {
	subtotal := decimal.Zero
	discount := decimal.Zero
	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		subtotal = subtotal.Add(line.LineTotal())
		if line.Product.HasDiscount() {
			saved := line.Product.Price.Sub(line.Product.DiscountPrice.Decimal)
			discount = discount.Add(saved.Mul(qty))
		}
	}

	summary := Summary{
		Subtotal:             subtotal,
		Discount:             discount,
		Delivery:             decimal.Zero,
		AmountToFreeDelivery: decimal.Zero,
	}
	if len(lines) == 0 {
		summary.Total = subtotal
		return summary
	}

	if subtotal.GreaterThanOrEqual(rule.FreeThreshold) {
		summary.FreeDelivery = true
	} else {
		summary.Delivery = rule.Charge
		summary.AmountToFreeDelivery = rule.FreeThreshold.Sub(subtotal)
	}
	summary.Total = subtotal.Add(summary.Delivery)
	return summary
}
