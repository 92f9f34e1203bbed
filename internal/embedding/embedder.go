package embedding

import (
	"context"
	"errors"
)

var (
	ErrEmptyText         = errors.New("embedding input is empty")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrNoFeatures        = errors.New("model returned no features")
)

// Model is a loaded sentence-embedding model. Features returns one
// feature vector per token, before pooling.
type Model interface {
	Name() string
	Dimension() int
	Features(ctx context.Context, text string) ([][]float64, error)
}

// Loader loads a Model. Loading may be expensive and is expected to
// happen once per process.
type Loader interface {
	Load(ctx context.Context) (Model, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context) (Model, error)

// Load calls f(ctx).
func (f LoaderFunc) Load(ctx context.Context) (Model, error) { return f(ctx) }

// Embedder converts free text into a normalized vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension(ctx context.Context) (int, error)
}
