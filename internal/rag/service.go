package rag

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"curator/internal/domain"
	"curator/internal/embedding"
)

// Backend is the subset of Client the service needs.
type Backend interface {
	Query(ctx context.Context, req domain.QueryRequest) (json.RawMessage, error)
}

// Service embeds a query locally and submits it to the backend.
// Overlapping calls are allowed and share nothing but the loaded model.
type Service struct {
	embedder embedding.Embedder
	backend  Backend
	logger   *slog.Logger
}

// NewService wires an embedder and a backend.
func NewService(embedder embedding.Embedder, backend Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{embedder: embedder, backend: backend, logger: logger}
}

// Ask embeds text and returns the backend's answer verbatim. Every
// error is a *Error and has already been logged.
func (s *Service) Ask(ctx context.Context, text string) (json.RawMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, s.fail(&Error{Stage: StageInput, Err: domain.ErrEmptyQuery})
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		stage := StageInference
		var loadErr *embedding.LoadError
		if errors.As(err, &loadErr) {
			stage = StageModelLoad
		}
		return nil, s.fail(&Error{Stage: stage, Err: err})
	}
	s.logger.Debug("query embedded", "dimension", len(vec))
	answer, err := s.backend.Query(ctx, domain.QueryRequest{Query: text, Embedding: vec})
	if err != nil {
		var e *Error
		if !errors.As(err, &e) {
			err = &Error{Stage: StageNetwork, Err: err}
		}
		return nil, s.fail(err)
	}
	return answer, nil
}

func (s *Service) fail(err error) error {
	s.logger.Error("query failed", "stage", StageOf(err), "error", err)
	return err
}
