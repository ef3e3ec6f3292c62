package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tanpawarit/driftdesk-agent/pkg/dummyapi"
)

type Source interface {
	Name() string
	Fetch(ctx context.Context) (dummyapi.Dataset, error)
}

// HTTPSource reads the three collections of the upstream service.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Name() string {
	return s.baseURL
}

// Fetch requests the collections concurrently; the first failure cancels
// the others.
func (s *HTTPSource) Fetch(ctx context.Context) (dummyapi.Dataset, error) {
	var (
		customers struct {
			Customers []dummyapi.Customer `json:"customers"`
		}
		orders struct {
			Orders []dummyapi.Order `json:"orders"`
		}
		tickets struct {
			Tickets []dummyapi.Ticket `json:"tickets"`
		}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.getJSON(gctx, "/customers", &customers) })
	g.Go(func() error { return s.getJSON(gctx, "/orders", &orders) })
	g.Go(func() error { return s.getJSON(gctx, "/tickets", &tickets) })
	if err := g.Wait(); err != nil {
		return dummyapi.Dataset{}, err
	}

	return dummyapi.Dataset{
		Customers: customers.Customers,
		Orders:    orders.Orders,
		Tickets:   tickets.Tickets,
	}, nil
}

func (s *HTTPSource) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
