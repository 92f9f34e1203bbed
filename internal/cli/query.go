package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/embedding"
	"curator/internal/rag"
)

var queryJSON bool

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Embed a question and send it to the RAG backend",
	Long: `Computes a mean-pooled, normalized embedding of the question and posts
the question and the embedding to the configured backend. The answer is
printed as returned. With no arguments the question is read from stdin.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the answer as compact JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		text = string(data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("a question is required")
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	svc, pipe, err := newQueryService()
	if err != nil {
		return err
	}
	defer pipe.Close()
	console := rag.NewConsole(svc)
	if err := console.Run(ctx, text); err != nil {
		return errors.New(console.Error())
	}
	if queryJSON {
		cmd.Println(string(console.Answer()))
		return nil
	}
	cmd.Println("Response:")
	cmd.Println(rag.Pretty(console.Answer()))
	return nil
}

// newQueryService wires the embedding pipeline to the configured backend.
// The caller closes the returned pipeline.
func newQueryService() (*rag.Service, *embedding.Pipeline, error) {
	if err := config.CheckEmbedderBackend(cfg); err != nil {
		return nil, nil, err
	}
	pipe, err := newEmbedder(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("embedder: %w", err)
	}
	client := rag.NewClient(rag.ClientConfig{
		URL:     cfg.Backend.URL,
		Timeout: time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
	}, nil)
	return rag.NewService(pipe, client, logger), pipe, nil
}
