package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docintake/internal/config"
)

// HTTPExtractor calls the extraction service over HTTP.
type HTTPExtractor struct {
	url    string
	client *http.Client
}

// NewHTTP creates an HTTPExtractor from config. The client timeout bounds the
// whole call; extraction of a large PDF can take a while, so the default is
// generous.
func NewHTTP(cfg config.ExtractorConfig) *HTTPExtractor {
	return &HTTPExtractor{
		url: cfg.URL,
		client: &http.Client{
			Timeout:   time.Duration(cfg.TimeoutSec) * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

var _ Extractor = (*HTTPExtractor)(nil)

// Extract posts the document to the extraction service and decodes the result.
// A non-2xx response is returned as an error; the caller decides how to record
// it in the document's history.
func (e *HTTPExtractor) Extract(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal extract request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build extract request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call extraction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("extraction service returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode extract response: %w", err)
	}
	return &result, nil
}
