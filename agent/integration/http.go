package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxErrorBodyBytes = 512

// jsonPoster posts JSON payloads to a fixed base URL. An empty base URL makes
// every call fail with ErrNotConfigured naming setting.
type jsonPoster struct {
	baseURL string
	setting string
	http    *http.Client
}

func newJSONPoster(baseURL, setting string, timeout time.Duration) *jsonPoster {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &jsonPoster{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		setting: setting,
		http:    &http.Client{Timeout: timeout},
	}
}

func (p *jsonPoster) post(ctx context.Context, path string, payload any) (any, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrNotConfigured, p.setting)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned status %d: %s", ErrUpstream, path, resp.StatusCode, truncate(raw))
	}

	var out any
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	return out, nil
}

func truncate(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) <= maxErrorBodyBytes {
		return s
	}
	return s[:maxErrorBodyBytes] + "..."
}
