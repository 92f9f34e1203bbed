// Package cli implements the curator command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/config"
	"curator/internal/embedding"
	"curator/internal/embedding/hashing"
	"curator/internal/embedding/local"
	"curator/internal/embedding/remote"
	"curator/internal/logging"
)

var (
	cfgPath  string
	logLevel string

	cfg    *config.AppConfig
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "curator",
	Short: "Medical RAG client",
	Long: `Curator embeds medical questions locally and sends them to a
retrieval-augmented generation backend. It also offers a terminal chat
and a reference backend for offline use.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (default ./config.yaml or ~/.config/curator/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger = logging.Setup(cfg.LogLevel, cmd.ErrOrStderr())
	return nil
}

// newEmbedder builds the embedding pipeline selected by the config.
func newEmbedder(cfg *config.AppConfig, logger *slog.Logger) (*embedding.Pipeline, error) {
	var loader embedding.Loader
	switch cfg.Embedder.Type {
	case "local", "":
		lc := local.Config{Model: local.DefaultModel, Dimension: cfg.Embedder.Dimension}
		if l := cfg.Embedder.Local; l != nil {
			if l.Model != "" {
				lc.Model = l.Model
			}
			lc.ModelPath = l.ModelPath
			lc.ModelsDir = l.ModelsDir
		}
		loader = local.Loader{Config: lc}
	case "hashing":
		loader = hashing.Loader{Dimension: cfg.Embedder.Dimension}
	case "remote":
		if cfg.Embedder.Remote == nil {
			return nil, fmt.Errorf("remote embedder config missing")
		}
		loader = remote.Loader{Config: remote.Config{
			BaseURL:   cfg.Embedder.Remote.BaseURL,
			APIKeyEnv: cfg.Embedder.Remote.APIKeyEnv,
			Model:     cfg.Embedder.Remote.Model,
			Dimension: cfg.Embedder.Dimension,
			Timeout:   time.Duration(cfg.Embedder.Remote.TimeoutSecs) * time.Second,
		}}
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
	return embedding.NewPipeline(loader, logger), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
