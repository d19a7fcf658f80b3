package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// HTTPStrategy posts the envelope to a text-generation gateway.
type HTTPStrategy struct {
	url    string
	token  string
	client *http.Client
}

// NewHTTPStrategy returns nil when url is empty.
func NewHTTPStrategy(url, token string, client *http.Client) *HTTPStrategy {
	if url == "" {
		return nil
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPStrategy{url: url, token: token, client: client}
}

func (s *HTTPStrategy) Name() string { return "gateway" }

func (s *HTTPStrategy) Generate(ctx context.Context, task Task, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(Request{Task: task, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("assist: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("assist: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assist: gateway call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("assist: gateway status %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("assist: decode gateway response: %w", err)
	}
	if !out.OK {
		if out.Error == "" {
			out.Error = "gateway returned ok=false"
		}
		return nil, errors.New("assist: " + out.Error)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("%w: gateway returned no data", ErrInvalidOutput)
	}
	return out.Data, nil
}
