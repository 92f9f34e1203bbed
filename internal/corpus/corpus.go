// Package corpus loads and indexes the documents served by the reference
// backend.
package corpus

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"curator/internal/domain"
	"curator/internal/embedding"
)

// LoadDir reads every .txt file in dir. The file name becomes the citation
// title and the parent directory name its category.
func LoadDir(dir string) ([]domain.Document, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	var documents []domain.Document
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			return nil, err
		}
		title := strings.TrimSuffix(filepath.Base(m), filepath.Ext(m))
		documents = append(documents, domain.Document{
			ID:      hashString(m),
			Path:    m,
			Content: string(data),
			Source: domain.Source{
				Title:    strings.ReplaceAll(title, "_", " "),
				Category: filepath.Base(filepath.Dir(m)),
				Page:     "full text",
			},
		})
	}
	if len(documents) == 0 {
		return nil, fmt.Errorf("no .txt documents found in %s", dir)
	}
	return documents, nil
}

// Indexer chunks documents, embeds the chunks and stores them.
type Indexer struct {
	Chunker  domain.Chunker
	Embedder embedding.Embedder
	Store    domain.VectorStore
	Workers  int
	Logger   *slog.Logger
}

// Index replaces the store contents with documents and returns the
// number of chunks written.
func (ix *Indexer) Index(ctx context.Context, documents []domain.Document) (int, error) {
	logger := ix.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var chunks []domain.Chunk
	for _, d := range documents {
		cs, err := ix.Chunker.Chunk(d)
		if err != nil {
			return 0, fmt.Errorf("chunk %s: %w", d.Path, err)
		}
		chunks = append(chunks, cs...)
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("corpus produced no chunks")
	}
	dim, err := ix.Embedder.Dimension(ctx)
	if err != nil {
		return 0, err
	}
	if err := ix.Store.Init(ctx, dim); err != nil {
		return 0, err
	}

	vectors := make([][]float64, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	workers := ix.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)
	for i := range chunks {
		g.Go(func() error {
			vec, err := ix.Embedder.Embed(gctx, chunks[i].Text)
			if err != nil {
				return fmt.Errorf("embed %s: %w", chunks[i].ChunkID, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := ix.Store.Clear(ctx); err != nil {
		return 0, err
	}
	if err := ix.Store.Upsert(ctx, chunks, vectors); err != nil {
		return 0, err
	}
	logger.Info("corpus indexed", "documents", len(documents), "chunks", len(chunks), "dimension", dim)
	return len(chunks), nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
