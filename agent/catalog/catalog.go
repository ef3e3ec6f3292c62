package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownSKU     = errors.New("unknown sku")
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateSKU   = errors.New("duplicate sku")
	ErrInvalidCatalog = errors.New("invalid catalog")
)

const defaultCurrency = "USD"

type Config struct {
	Dir string `envconfig:"DIR" split_words:"true" default:"data"`
}

type Product struct {
	SKU         string   `json:"sku" yaml:"sku"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Category    string   `json:"category" yaml:"category"`
	Tags        []string `json:"tags" yaml:"tags"`
}

type PriceItem struct {
	UnitPrice float64 `json:"unit_price" yaml:"unit_price"`
}

type Promo struct {
	PercentOff  float64 `json:"percent_off" yaml:"percent_off"`
	MinSubtotal float64 `json:"min_subtotal" yaml:"min_subtotal"`
}

type Pricing struct {
	Currency string               `json:"currency" yaml:"currency"`
	Items    map[string]PriceItem `json:"items" yaml:"items"`
	Promos   map[string]Promo     `json:"promos" yaml:"promos"`
}

// Order is an order record as found in the reference data. Beyond status,
// total and ordered_at the fields are free-form and returned verbatim.
type Order map[string]any

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	products []Product
	currency string
	prices   map[string]PriceItem
	promos   map[string]Promo
	orders   map[string]Order
}

func New(products []Product, pricing Pricing, orders map[string]Order) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		currency: strings.TrimSpace(pricing.Currency),
		prices:   make(map[string]PriceItem, len(pricing.Items)),
		promos:   make(map[string]Promo, len(pricing.Promos)),
		orders:   make(map[string]Order, len(orders)),
	}
	if c.currency == "" {
		c.currency = defaultCurrency
	}

	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		sku := strings.TrimSpace(p.SKU)
		if sku == "" {
			return nil, fmt.Errorf("%w: product %q has no sku", ErrInvalidCatalog, p.Name)
		}
		if _, ok := seen[sku]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSKU, sku)
		}
		seen[sku] = struct{}{}

		p.SKU = sku
		p.Tags = append([]string(nil), p.Tags...)
		c.products = append(c.products, p)
	}

	for sku, item := range pricing.Items {
		if item.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: negative unit price for %s", ErrInvalidCatalog, sku)
		}
		c.prices[strings.TrimSpace(sku)] = item
	}
	for code, promo := range pricing.Promos {
		if promo.PercentOff < 0 || promo.PercentOff > 100 {
			return nil, fmt.Errorf("%w: promo %s percent_off out of range", ErrInvalidCatalog, code)
		}
		c.promos[strings.ToUpper(strings.TrimSpace(code))] = promo
	}
	for id, order := range orders {
		c.orders[strings.TrimSpace(id)] = cloneOrder(order)
	}

	return c, nil
}

func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	for i, p := range c.products {
		p.Tags = append([]string(nil), p.Tags...)
		out[i] = p
	}
	return out
}

func (c *Catalog) Currency() string {
	return c.currency
}

// Order returns a copy of the order record for orderID.
func (c *Catalog) Order(orderID string) (Order, error) {
	order, ok := c.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return cloneOrder(order), nil
}

func cloneOrder(in Order) Order {
	out := make(Order, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
