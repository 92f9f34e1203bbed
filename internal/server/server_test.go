package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curator/internal/chunker"
	"curator/internal/corpus"
	"curator/internal/domain"
	"curator/internal/embedding"
	"curator/internal/embedding/hashing"
	"curator/internal/rag"
	"curator/internal/summarizer"
	"curator/internal/vectorstore/memory"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestServer(t *testing.T) (*Server, *embedding.Pipeline) {
	t.Helper()
	ctx := context.Background()
	pipe := embedding.NewPipeline(hashing.Loader{Dimension: 128}, quietLogger())
	store := memory.NewStorage()
	ix := &corpus.Indexer{
		Chunker:  chunker.NewSentenceChunker(3, 1),
		Embedder: pipe,
		Store:    store,
		Workers:  4,
		Logger:   quietLogger(),
	}
	_, err := ix.Index(ctx, corpus.Builtin())
	require.NoError(t, err)
	srv := New(Options{
		Store:            store,
		Summarizer:       summarizer.NewFrequencySummarizer(),
		Dimension:        128,
		TopK:             3,
		SummarySentences: 2,
		Logger:           quietLogger(),
	})
	return srv, pipe
}

func post(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestNotFoundEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuery_Validation(t *testing.T) {
	srv, pipe := newTestServer(t)
	vec, err := pipe.Embed(context.Background(), "chest pain")
	require.NoError(t, err)
	good, err := json.Marshal(vec)
	require.NoError(t, err)
	scaled := make([]float64, len(vec))
	for i, v := range vec {
		scaled[i] = 2 * v
	}
	notUnit, err := json.Marshal(scaled)
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"query":`},
		{"empty query", `{"query":"  ","embedding":` + string(good) + `}`},
		{"short embedding", `{"query":"q","embedding":[1]}`},
		{"not unit length", `{"query":"q","embedding":` + string(notUnit) + `}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestQuery_RetrievesRelevantSources(t *testing.T) {
	srv, pipe := newTestServer(t)
	text := "mechanism of beta blockers in heart failure"
	vec, err := pipe.Embed(context.Background(), text)
	require.NoError(t, err)
	body, err := json.Marshal(domain.QueryRequest{Query: text, Embedding: vec})
	require.NoError(t, err)

	w := post(t, srv, string(body))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Answer domain.Answer `json:"answer"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Answer.Content)
	require.NotEmpty(t, resp.Answer.Sources)
	assert.Equal(t, "Cardiology", resp.Answer.Sources[0].Category)
	require.NotNil(t, resp.Answer.Confidence)
	assert.GreaterOrEqual(t, *resp.Answer.Confidence, 0)
	assert.LessOrEqual(t, *resp.Answer.Confidence, 100)
}

func TestQuery_EndToEndThroughClient(t *testing.T) {
	srv, pipe := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	svc := rag.NewService(pipe, rag.NewClient(rag.ClientConfig{URL: ts.URL + "/query"}, nil), quietLogger())

	answer, err := svc.Ask(context.Background(), "layers of the epidermis stratum corneum")

	require.NoError(t, err)
	var a domain.Answer
	require.NoError(t, json.Unmarshal(answer, &a))
	require.NotEmpty(t, a.Sources)
	assert.Equal(t, "Anatomy & Physiology", a.Sources[0].Category)
}

func TestQuery_DimensionMismatchSurfacesAsStatusError(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	other := embedding.NewPipeline(hashing.Loader{Dimension: 64}, quietLogger())
	svc := rag.NewService(other, rag.NewClient(rag.ClientConfig{URL: ts.URL + "/query"}, nil), quietLogger())

	_, err := svc.Ask(context.Background(), "chest pain")

	assert.Equal(t, rag.StageStatus, rag.StageOf(err))
	assert.Equal(t, rag.GenericMessage, rag.UserMessage(err))
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0, confidence(-0.2))
	assert.Equal(t, 87, confidence(0.874))
	assert.Equal(t, 100, confidence(1.2))
}
