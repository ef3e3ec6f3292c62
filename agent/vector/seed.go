package vector

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	catalogx "github.com/tanpawarit/driftdesk-agent/agent/catalog"
)

type SeedReport struct {
	Status  string `json:"status"`
	Count   int    `json:"count"`
	Created bool   `json:"created"`
}

// SeedProducts embeds every product and upserts it keyed by sku, creating the
// collection first if needed. Re-running overwrites the same points.
func SeedProducts(ctx context.Context, c *Client, products []catalogx.Product) (SeedReport, error) {
	created, err := c.EnsureCollection(ctx)
	if err != nil {
		return SeedReport{}, fmt.Errorf("ensure collection: %w", err)
	}

	points := make([]Point, 0, len(products))
	for _, p := range products {
		text := strings.Join([]string{p.Name, p.Description, strings.Join(p.Tags, " ")}, " ")
		points = append(points, Point{
			Key:    p.SKU,
			Vector: Embed(text, c.Dim()),
			Payload: map[string]any{
				"sku":         p.SKU,
				"name":        p.Name,
				"description": p.Description,
				"category":    p.Category,
				"tags":        p.Tags,
			},
		})
	}

	if err := c.Upsert(ctx, points); err != nil {
		return SeedReport{}, fmt.Errorf("upsert products: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("collection", c.cfg.Collection).
		Int("count", len(points)).
		Bool("created", created).
		Msg("seeded product vectors")
	return SeedReport{Status: "seeded", Count: len(points), Created: created}, nil
}
