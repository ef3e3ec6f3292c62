package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const maxErrorBodyBytes = 1024

var pointIDNamespace = uuid.MustParse("6f0b8a5e-3f42-4c1e-9d7a-2b1f0c9e8d41")

type Match struct {
	Score       float64 `json:"score"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
}

type Point struct {
	Key     string
	Vector  []float32
	Payload map[string]any
}

// Client talks to the Qdrant REST API for a single collection.
type Client struct {
	cfg  Config
	http *http.Client
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
}

type searchItem struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

func NewClient(cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	cfg = cfg.withDefaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Client) Dim() int {
	return c.cfg.VectorDim
}

// SearchText embeds query and returns the nearest products in the order the
// backend ranked them.
func (c *Client) SearchText(ctx context.Context, query string, limit int) ([]Match, error) {
	return c.Search(ctx, Embed(query, c.cfg.VectorDim), limit)
}

func (c *Client) Search(ctx context.Context, vec []float32, limit int) ([]Match, error) {
	const op = "search"
	if len(vec) != c.cfg.VectorDim {
		return nil, opErr(op, OperationErrorValidation,
			fmt.Sprintf("query vector dimension mismatch: expected=%d got=%d", c.cfg.VectorDim, len(vec)), nil)
	}

	req := map[string]any{
		"vector":       vec,
		"limit":        max(limit, 1),
		"with_payload": true,
		"with_vector":  false,
	}
	var items []searchItem
	if err := c.doJSON(ctx, op, http.MethodPost, c.collectionPath("/points/search"), req, &items); err != nil {
		return nil, err
	}

	out := make([]Match, 0, len(items))
	for _, item := range items {
		out = append(out, Match{
			Score:       item.Score,
			SKU:         payloadString(item.Payload, "sku"),
			Name:        payloadString(item.Payload, "name"),
			Description: payloadString(item.Payload, "description"),
			Category:    payloadString(item.Payload, "category"),
		})
	}
	return out, nil
}

func (c *Client) Upsert(ctx context.Context, points []Point) error {
	const op = "upsert"
	if len(points) == 0 {
		return nil
	}

	body := make([]map[string]any, 0, len(points))
	for _, p := range points {
		key := strings.TrimSpace(p.Key)
		if key == "" {
			return opErr(op, OperationErrorValidation, "point key is required", nil)
		}
		if len(p.Vector) != c.cfg.VectorDim {
			return opErr(op, OperationErrorValidation,
				fmt.Sprintf("point %q dimension mismatch: expected=%d got=%d", key, c.cfg.VectorDim, len(p.Vector)), nil)
		}
		body = append(body, map[string]any{
			"id":      PointID(key),
			"vector":  p.Vector,
			"payload": p.Payload,
		})
	}

	return c.doJSON(ctx, op, http.MethodPut, c.collectionPath("/points?wait=true"), map[string]any{"points": body}, nil)
}

// EnsureCollection creates the collection with cosine distance when it does
// not exist yet. It reports whether a collection was created.
func (c *Client) EnsureCollection(ctx context.Context) (bool, error) {
	const op = "ensure_collection"

	var exists struct {
		Exists bool `json:"exists"`
	}
	if err := c.doJSON(ctx, op, http.MethodGet, c.collectionPath("/exists"), nil, &exists); err != nil {
		return false, err
	}
	if exists.Exists {
		return false, nil
	}

	req := map[string]any{
		"vectors": map[string]any{
			"size":     c.cfg.VectorDim,
			"distance": "Cosine",
		},
	}
	if err := c.doJSON(ctx, op, http.MethodPut, c.collectionPath(""), req, nil); err != nil {
		return false, err
	}
	return true, nil
}

// PointID derives a stable point id from a natural key.
func PointID(key string) string {
	return uuid.NewSHA1(pointIDNamespace, []byte(key)).String()
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.URL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key := strings.TrimSpace(c.cfg.APIKey); key != "" {
		req.Header.Set("api-key", key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode envelope failed", err)
	}
	if msg := envelopeStatusError(env.Status); msg != "" {
		return &OperationError{Code: OperationErrorQueryFailed, Operation: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || len(env.Result) == 0 || string(env.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode result failed", err)
	}
	return nil
}

func (c *Client) collectionPath(suffix string) string {
	return "/collections/" + c.cfg.Collection + suffix
}

func envelopeStatusError(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.EqualFold(s, "ok") {
			return ""
		}
		return fmt.Sprintf("status=%q", s)
	}

	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && strings.TrimSpace(obj.Error) != "" {
		return strings.TrimSpace(obj.Error)
	}
	return "status=" + status
}

func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}
