package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"curator/internal/domain"
)

// Client posts queries to the RAG backend.
type Client struct {
	url    string
	client *http.Client
}

// ClientConfig configures the backend client. A zero Timeout means the
// request only ends when its context does.
type ClientConfig struct {
	URL     string
	Timeout time.Duration
}

// NewClient creates a backend client. httpClient may be nil.
func NewClient(cfg ClientConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{url: cfg.URL, client: httpClient}
}

// URL returns the backend endpoint.
func (c *Client) URL() string { return c.url }

// Query sends req and returns the raw answer field. Transport failures
// and non-2xx statuses are errors; there is no retry.
func (c *Client) Query(ctx context.Context, req domain.QueryRequest) (json.RawMessage, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Stage: StageNetwork, Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Stage: StageNetwork, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Stage: StageNetwork, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &Error{Stage: StageStatus, Err: &StatusError{Code: resp.StatusCode, Status: resp.Status}}
	}
	var out domain.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &Error{Stage: StageDecode, Err: fmt.Errorf("decode backend response: %w", err)}
	}
	return out.Answer, nil
}
