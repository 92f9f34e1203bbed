package embedding

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Pipeline is a feature-extraction pipeline with mean pooling and
// normalization. The model is loaded on first use and reused afterwards.
type Pipeline struct {
	loader Loader
	logger *slog.Logger

	mu    sync.Mutex
	model Model
}

// NewPipeline returns a pipeline that loads its model lazily through loader.
func NewPipeline(loader Loader, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{loader: loader, logger: logger}
}

// Model returns the loaded model, loading it if needed. Concurrent first
// callers wait for a single load. A failed load is not remembered.
func (p *Pipeline) Model(ctx context.Context) (Model, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.model != nil {
		return p.model, nil
	}
	m, err := p.loader.Load(ctx)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	p.logger.Info("embedding model loaded", "model", m.Name(), "dimension", m.Dimension())
	p.model = m
	return m, nil
}

// Close releases the loaded model if it holds resources. The next call
// loads it again.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := p.model
	p.model = nil
	if c, ok := m.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Dimension returns the output size of the loaded model.
func (p *Pipeline) Dimension(ctx context.Context) (int, error) {
	m, err := p.Model(ctx)
	if err != nil {
		return 0, err
	}
	return m.Dimension(), nil
}

// Embed returns the mean-pooled, unit-length embedding of text.
func (p *Pipeline) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	m, err := p.Model(ctx)
	if err != nil {
		return nil, err
	}
	features, err := m.Features(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s inference: %w", m.Name(), err)
	}
	vec, err := MeanPool(features)
	if err != nil {
		return nil, fmt.Errorf("%s pooling: %w", m.Name(), err)
	}
	if len(vec) != m.Dimension() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), m.Dimension())
	}
	return Normalize(vec), nil
}

// LoadError marks a failure to load the model, as opposed to a failure
// while running it.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return "load embedding model: " + e.Err.Error() }

func (e *LoadError) Unwrap() error { return e.Err }
