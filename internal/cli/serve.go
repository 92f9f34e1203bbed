package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/chunker"
	"curator/internal/config"
	"curator/internal/corpus"
	"curator/internal/domain"
	"curator/internal/embedding"
	"curator/internal/server"
	"curator/internal/summarizer"
	"curator/internal/vectorstore"
)

var (
	serveAddr   string
	serveCorpus string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference RAG backend",
	Long: `Indexes a small medical corpus (or the .txt files in --corpus) with the
configured embedder and answers POST /query requests using the same
contract as the hosted backend.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&serveCorpus, "corpus", "", "directory of .txt documents to index instead of the built-in corpus")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveCorpus != "" {
		cfg.Server.CorpusDir = serveCorpus
	}
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	pipe, err := newEmbedder(cfg, logger)
	if err != nil {
		return fmt.Errorf("embedder: %w", err)
	}
	defer pipe.Close()

	srv, err := buildServer(ctx, cfg, pipe)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// buildServer indexes the corpus with pipe and returns a ready server.
// Clients must embed with the same model.
func buildServer(ctx context.Context, cfg *config.AppConfig, pipe *embedding.Pipeline) (*server.Server, error) {
	store, err := vectorstore.New(cfg.Server.VectorStore)
	if err != nil {
		return nil, err
	}

	var ch domain.Chunker
	switch cfg.Server.Chunker.Type {
	case "sentence", "":
		ch = chunker.NewSentenceChunker(cfg.Server.Chunker.SentencesPerChunk, cfg.Server.Chunker.OverlapSentences)
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Server.Chunker.Type)
	}

	docs := corpus.Builtin()
	if cfg.Server.CorpusDir != "" {
		docs, err = corpus.LoadDir(cfg.Server.CorpusDir)
		if err != nil {
			return nil, err
		}
	}
	ix := &corpus.Indexer{Chunker: ch, Embedder: pipe, Store: store, Workers: cfg.Server.EmbedWorkers, Logger: logger}
	if _, err := ix.Index(ctx, docs); err != nil {
		return nil, fmt.Errorf("index corpus: %w", err)
	}
	dim, err := pipe.Dimension(ctx)
	if err != nil {
		return nil, err
	}
	return server.New(server.Options{
		Store:            store,
		Summarizer:       summarizer.NewFrequencySummarizer(),
		Dimension:        dim,
		TopK:             cfg.Server.TopK,
		SummarySentences: cfg.Server.SummarySentences,
		Logger:           logger,
	}), nil
}
