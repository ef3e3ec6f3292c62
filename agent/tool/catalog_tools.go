package tool

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/schema"

	catalogx "github.com/tanpawarit/driftdesk-agent/agent/catalog"
	ticketx "github.com/tanpawarit/driftdesk-agent/agent/ticket"
	vectorx "github.com/tanpawarit/driftdesk-agent/agent/vector"
)

type VectorSearcher interface {
	SearchText(ctx context.Context, query string, limit int) ([]vectorx.Match, error)
}

type searchProductsTool struct {
	catalog *catalogx.Catalog
}

func (searchProductsTool) Spec() Spec {
	return Spec{
		Name: SearchProducts,
		Desc: "Search the product catalog by keywords and optional category.",
		Params: map[string]*schema.ParameterInfo{
			"keywords": str("Space separated keywords; every keyword must match", true),
			"category": str("Exact product category to filter on", false),
			"limit":    integer("Maximum number of matches to return (default 3)"),
		},
		Defaults: map[string]any{"limit": catalogx.DefaultSearchLimit},
	}
}

func (t searchProductsTool) Invoke(_ context.Context, args Args) (any, error) {
	return t.catalog.SearchProducts(args.String("keywords"), args.String("category"), args.Int("limit")), nil
}

type vectorSearchResult struct {
	Matches []vectorx.Match `json:"matches"`
	Count   int             `json:"count"`
}

type searchProductVectorsTool struct {
	searcher VectorSearcher
}

func (searchProductVectorsTool) Spec() Spec {
	return Spec{
		Name: SearchProductVectors,
		Desc: "Search product info stored in the vector index by semantic similarity.",
		Params: map[string]*schema.ParameterInfo{
			"query": str("Free text describing the product", true),
			"limit": integer("Maximum number of matches to return (default 3)"),
		},
		Defaults: map[string]any{"limit": 3},
	}
}

func (t searchProductVectorsTool) Invoke(ctx context.Context, args Args) (any, error) {
	if t.searcher == nil {
		return nil, vectorx.ErrNotConfigured
	}
	matches, err := t.searcher.SearchText(ctx, args.String("query"), max(args.Int("limit"), 1))
	if err != nil {
		return nil, err
	}
	return vectorSearchResult{Matches: matches, Count: len(matches)}, nil
}

type getPricingTool struct {
	catalog *catalogx.Catalog
}

func (getPricingTool) Spec() Spec {
	return Spec{
		Name: GetPricing,
		Desc: "Get pricing for a SKU with quantity and optional promo code.",
		Params: map[string]*schema.ParameterInfo{
			"sku":        str("Product SKU", true),
			"quantity":   integer("Number of units (default 1)"),
			"promo_code": str("Promo code to apply", false),
		},
		Defaults: map[string]any{"quantity": 1},
	}
}

func (t getPricingTool) Invoke(_ context.Context, args Args) (any, error) {
	sku := args.String("sku")
	quote, err := t.catalog.Quote(sku, args.Int("quantity"), args.String("promo_code"))
	if errors.Is(err, catalogx.ErrUnknownSKU) {
		return nil, failf("Unknown SKU: %s", sku)
	}
	if err != nil {
		return nil, err
	}
	return quote, nil
}

type checkOrderStatusTool struct {
	catalog *catalogx.Catalog
}

func (checkOrderStatusTool) Spec() Spec {
	return Spec{
		Name: CheckOrderStatus,
		Desc: "Check the status of an order.",
		Params: map[string]*schema.ParameterInfo{
			"order_id": str("Order identifier, e.g. ORD-1001", true),
		},
	}
}

func (t checkOrderStatusTool) Invoke(_ context.Context, args Args) (any, error) {
	orderID := args.String("order_id")
	order, err := t.catalog.Order(orderID)
	if errors.Is(err, catalogx.ErrOrderNotFound) {
		return nil, failf("Order not found: %s", orderID)
	}
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(order)+1)
	for k, v := range order {
		out[k] = v
	}
	out["order_id"] = orderID
	return out, nil
}

type openedTicket struct {
	TicketID string  `json:"ticket_id"`
	Status   string  `json:"status"`
	Priority string  `json:"priority"`
	OrderID  *string `json:"order_id"`
}

// openSupportTicketTool opens a ticket without any storage. The id is a
// content hash, so the same request always yields the same ticket.
type openSupportTicketTool struct{}

func (openSupportTicketTool) Spec() Spec {
	return Spec{
		Name: OpenSupportTicket,
		Desc: "Open a support ticket for a customer issue.",
		Params: map[string]*schema.ParameterInfo{
			"issue":    str("Description of the customer's problem", true),
			"email":    str("Customer email address", true),
			"order_id": str("Related order identifier", false),
			"priority": str("low, normal, high or urgent (default normal)", false),
		},
		Defaults: map[string]any{"priority": ticketx.DefaultPriority},
	}
}

func (openSupportTicketTool) Invoke(_ context.Context, args Args) (any, error) {
	orderID := args.OptString("order_id")
	priority := args.String("priority")

	var orderPart string
	if orderID != nil {
		orderPart = *orderID
	}
	return openedTicket{
		TicketID: ticketx.ContentID(args.String("issue"), args.String("email"), orderPart, priority),
		Status:   ticketx.StatusOpen,
		Priority: priority,
		OrderID:  orderID,
	}, nil
}
