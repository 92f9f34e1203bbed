package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"curator/internal/embedding"
)

// DefaultModel is the sentence-transformers checkpoint the query path
// was built around.
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// Config configures the feature-extraction client.
type Config struct {
	// BaseURL is the full feature-extraction endpoint, for example a
	// text-embeddings-inference "/embed_all" route.
	BaseURL   string
	APIKeyEnv string
	Model     string
	// Dimension is the expected output size. Zero accepts whatever the
	// warm-up request returns.
	Dimension int
	Timeout   time.Duration
}

// Client is a feature-extraction HTTP client implementing embedding.Model.
type Client struct {
	baseURL   string
	apiKey    string
	model     string
	dimension int
	client    *http.Client
}

// Loader creates a Client and verifies the endpoint with a warm-up request.
type Loader struct {
	Config     Config
	HTTPClient *http.Client
}

// Load builds the client and runs one inference to learn the dimension.
func (l Loader) Load(ctx context.Context) (embedding.Model, error) {
	c, err := NewClient(l.Config, l.HTTPClient)
	if err != nil {
		return nil, err
	}
	features, err := c.Features(ctx, "warm up")
	if err != nil {
		return nil, fmt.Errorf("warm-up request: %w", err)
	}
	got := len(features[0])
	if c.dimension != 0 && c.dimension != got {
		return nil, fmt.Errorf("%w: endpoint returned %d, configured %d", embedding.ErrDimensionMismatch, got, c.dimension)
	}
	c.dimension = got
	return c, nil
}

// NewClient creates a client. The API key is optional; it is read from
// the environment variable named by cfg.APIKeyEnv.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("remote embedder: base URL is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	var key string
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    key,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		client:    httpClient,
	}, nil
}

// Name returns the model identifier.
func (c *Client) Name() string { return c.model }

// Dimension returns the dimensionality of the produced feature rows.
func (c *Client) Dimension() int { return c.dimension }

// Features requests token-level features for text.
func (c *Client) Features(ctx context.Context, text string) ([][]float64, error) {
	type reqBody struct {
		Inputs string `json:"inputs"`
		Model  string `json:"model,omitempty"`
	}
	data, err := json.Marshal(reqBody{Inputs: text, Model: c.model})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("feature extraction failed: %s", resp.Status)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return decodeFeatures(payload)
}

// decodeFeatures accepts a batch of token matrices, a single token
// matrix, or an already pooled vector.
func decodeFeatures(payload []byte) ([][]float64, error) {
	var batch [][][]float64
	if err := json.Unmarshal(payload, &batch); err == nil {
		if len(batch) > 0 && len(batch[0]) > 0 && len(batch[0][0]) > 0 {
			return batch[0], nil
		}
	}
	var tokens [][]float64
	if err := json.Unmarshal(payload, &tokens); err == nil {
		if len(tokens) > 0 && len(tokens[0]) > 0 {
			return tokens, nil
		}
	}
	var pooled []float64
	if err := json.Unmarshal(payload, &pooled); err == nil {
		if len(pooled) > 0 {
			return [][]float64{pooled}, nil
		}
	}
	return nil, embedding.ErrNoFeatures
}
