// Package server is a reference implementation of the RAG backend's
// query contract, used to run the client end to end without the hosted
// service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"curator/internal/domain"
	"curator/internal/embedding"
)

// normTolerance bounds how far a submitted embedding may be from unit length.
const normTolerance = 1e-3

// Options configures the query handler.
type Options struct {
	Store            domain.VectorStore
	Summarizer       domain.Summarizer
	Dimension        int
	TopK             int
	SummarySentences int
	Logger           *slog.Logger
}

// Server answers POST /query from an indexed corpus.
type Server struct {
	router *chi.Mux
	opts   Options
	logger *slog.Logger
}

// New builds the router.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.SummarySentences <= 0 {
		opts.SummarySentences = 3
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	s := &Server{router: router, opts: opts, logger: logger}
	router.Use(s.logRequests)

	router.Get("/health", s.health)
	router.Post("/query", s.query)
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("reference backend listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var req domain.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := s.opts.Store.Search(r.Context(), req.Embedding, s.opts.TopK)
	if err != nil {
		s.logger.Error("search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	answer, err := s.compose(results)
	if err != nil {
		s.logger.Error("compose answer failed", "error", err)
		writeError(w, http.StatusInternalServerError, "answer failed")
		return
	}
	payload, err := json.Marshal(answer)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "answer failed")
		return
	}
	writeJSON(w, http.StatusOK, domain.QueryResponse{Answer: payload})
}

func (s *Server) validate(req domain.QueryRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return domain.ErrEmptyQuery
	}
	if len(req.Embedding) != s.opts.Dimension {
		return fmt.Errorf("embedding must have %d values, got %d", s.opts.Dimension, len(req.Embedding))
	}
	for _, v := range req.Embedding {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("embedding contains non-finite values")
		}
	}
	if n := embedding.Norm(req.Embedding); math.Abs(n-1) > normTolerance {
		return fmt.Errorf("embedding must be unit length, got norm %.4f", n)
	}
	return nil
}

// compose summarizes the retrieved chunks into an answer citing each
// distinct source once, in rank order.
func (s *Server) compose(results []domain.SearchResult) (domain.Answer, error) {
	if len(results) == 0 {
		return domain.Answer{Content: "No matching passages were found in the knowledge base."}, nil
	}
	texts := make([]string, 0, len(results))
	var sources []domain.Source
	seen := make(map[domain.Source]struct{})
	for _, r := range results {
		texts = append(texts, r.Chunk.Text)
		if r.Chunk.Source.Title == "" {
			continue
		}
		if _, ok := seen[r.Chunk.Source]; ok {
			continue
		}
		seen[r.Chunk.Source] = struct{}{}
		sources = append(sources, r.Chunk.Source)
	}
	content, err := s.opts.Summarizer.Summarize(strings.Join(texts, " "), s.opts.SummarySentences)
	if err != nil {
		return domain.Answer{}, err
	}
	c := confidence(results[0].Score)
	return domain.Answer{
		Content:    content,
		Sources:    sources,
		Confidence: &c,
	}, nil
}

func confidence(score float64) int {
	c := int(math.Round(score * 100))
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
