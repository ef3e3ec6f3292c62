package vector

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogx "github.com/tanpawarit/driftdesk-agent/agent/catalog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{URL: srv.URL + "/", Collection: "products", VectorDim: 8})
	require.NoError(t, err)
	return c
}

func writeResult(t *testing.T, w http.ResponseWriter, result any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"result": result, "status": "ok", "time": 0.001}))
}

func TestEmbedIsDeterministicUnitVector(t *testing.T) {
	t.Parallel()

	a := Embed("standing desk", 16)
	b := Embed("standing desk", 16)
	require.Len(t, a, 16)
	assert.Equal(t, a, b)

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)

	empty := Embed("", 4)
	assert.Equal(t, []float32{0, 0, 0, 0}, empty)
}

func TestNewClientRequiresURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestSearchKeepsBackendOrder(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/collections/products/points/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		writeResult(t, w, []map[string]any{
			{"id": "a", "score": 0.4, "payload": map[string]any{"sku": "DSK-100", "name": "Desk", "category": "furniture"}},
			{"id": "b", "score": 0.9, "payload": map[string]any{"sku": "CHR-200", "name": "Chair"}},
		})
	})

	matches, err := c.SearchText(context.Background(), "desk", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "DSK-100", matches[0].SKU)
	assert.Equal(t, "furniture", matches[0].Category)
	assert.Equal(t, "CHR-200", matches[1].SKU)
	assert.Equal(t, 0.9, matches[1].Score)

	assert.EqualValues(t, 1, captured["limit"])
	assert.Equal(t, true, captured["with_payload"])
	assert.Len(t, captured["vector"], 8)
}

func TestSearchSurfacesHTTPFailure(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":{"error":"collection missing"}}`, http.StatusNotFound)
	})

	_, err := c.SearchText(context.Background(), "desk", 3)
	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, OperationErrorQueryFailed, opErr.Code)
	assert.Equal(t, http.StatusNotFound, opErr.StatusCode)
}

func TestSearchSurfacesEnvelopeError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":null,"status":{"error":"bad vector"}}`))
	})

	_, err := c.SearchText(context.Background(), "desk", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad vector")
}

func TestSearchRejectsWrongDimension(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL.Path)
	})

	_, err := c.Search(context.Background(), []float32{1, 2}, 3)
	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, OperationErrorValidation, opErr.Code)
}

func TestSeedProductsCreatesCollectionAndUpserts(t *testing.T) {
	t.Parallel()

	var (
		createdBody map[string]any
		upsertBody  struct {
			Points []struct {
				ID      string         `json:"id"`
				Vector  []float32      `json:"vector"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		}
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections/products/exists":
			writeResult(t, w, map[string]any{"exists": false})
		case r.Method == http.MethodPut && r.URL.Path == "/collections/products":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createdBody))
			writeResult(t, w, true)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/products/points":
			assert.Equal(t, "wait=true", r.URL.RawQuery)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&upsertBody))
			writeResult(t, w, map[string]any{"status": "acknowledged"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	})

	report, err := SeedProducts(context.Background(), c, []catalogx.Product{
		{SKU: "DSK-100", Name: "Desk", Description: "Standing desk", Category: "furniture", Tags: []string{"desk"}},
		{SKU: "CHR-200", Name: "Chair", Category: "furniture"},
	})
	require.NoError(t, err)
	assert.Equal(t, SeedReport{Status: "seeded", Count: 2, Created: true}, report)

	vectors, ok := createdBody["vectors"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Cosine", vectors["distance"])
	assert.EqualValues(t, 8, vectors["size"])

	require.Len(t, upsertBody.Points, 2)
	assert.Equal(t, PointID("DSK-100"), upsertBody.Points[0].ID)
	assert.Equal(t, "DSK-100", upsertBody.Points[0].Payload["sku"])
	assert.Len(t, upsertBody.Points[0].Vector, 8)
}

func TestPointIDIsStable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PointID("DSK-100"), PointID("DSK-100"))
	assert.NotEqual(t, PointID("DSK-100"), PointID("CHR-200"))
}

func TestSearchTextTimesOut(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := NewClient(Config{URL: srv.URL, Collection: "products", VectorDim: 8, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	started := time.Now()
	_, err = c.SearchText(context.Background(), "standing desk", 3)
	assert.Less(t, time.Since(started), time.Second)

	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, OperationErrorTimeout, opErr.Code)
}
