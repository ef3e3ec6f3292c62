package catalog

import (
	"fmt"
	"math"
	"strings"
)

type Quote struct {
	SKU       string  `json:"sku"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
	Discount  float64 `json:"discount"`
	Total     float64 `json:"total"`
	Currency  string  `json:"currency"`
	Promo     *string `json:"promo"`
}

// Quote prices quantity units of sku. A promo code is matched
// case-insensitively and only applies once the subtotal reaches its minimum.
func (c *Catalog) Quote(sku string, quantity int, promoCode string) (Quote, error) {
	item, ok := c.prices[sku]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrUnknownSKU, sku)
	}

	qty := max(quantity, 1)
	subtotal := item.UnitPrice * float64(qty)
	q := Quote{
		SKU:       sku,
		Quantity:  qty,
		UnitPrice: item.UnitPrice,
		Subtotal:  subtotal,
		Currency:  c.currency,
	}

	code := strings.ToUpper(strings.TrimSpace(promoCode))
	if code != "" {
		if promo, ok := c.promos[code]; ok && subtotal >= promo.MinSubtotal {
			q.Discount = round2(subtotal * promo.PercentOff / 100)
			q.Promo = &code
		}
	}

	q.Total = round2(subtotal - q.Discount)
	return q, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
