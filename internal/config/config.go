package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultBackendURL is the hosted RAG backend the query path talks to.
	DefaultBackendURL = "https://curatorbackend-6p51.onrender.com/query"
	// DefaultLocalModel is an ONNX export of sentence-transformers/all-MiniLM-L6-v2,
	// the model the hosted backend indexes with.
	DefaultLocalModel = "KnightsAnalytics/all-MiniLM-L6-v2"
	// MiniLMDimension is the output size of all-MiniLM-L6-v2.
	MiniLMDimension = 384
)

// ErrOfflineEmbedderRemoteBackend is returned when the hashing model would
// send its vectors to a backend that indexes with a different model.
var ErrOfflineEmbedderRemoteBackend = errors.New("the hashing embedder only works with a local backend")

// LocalEmbedderConfig holds configuration for the in-process sentence-transformer.
type LocalEmbedderConfig struct {
	Model     string `yaml:"model"`
	ModelPath string `yaml:"model_path,omitempty"`
	ModelsDir string `yaml:"models_dir,omitempty"`
}

// RemoteEmbedderConfig holds configuration for a feature-extraction endpoint.
type RemoteEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the embedding model.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	Local     *LocalEmbedderConfig  `yaml:"local,omitempty"`
	Remote    *RemoteEmbedderConfig `yaml:"remote,omitempty"`
}

// BackendConfig points the query path at a RAG backend. A zero timeout
// leaves requests bounded only by cancellation.
type BackendConfig struct {
	URL         string `yaml:"url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChatConfig configures the chat surface. A nil ResponseDelayMs takes the
// default; zero means no delay.
type ChatConfig struct {
	Mode            string `yaml:"mode"`
	ResponseDelayMs *int   `yaml:"response_delay_ms"`
}

// ChunkerConfig configures how corpus documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ServerConfig configures the reference backend.
type ServerConfig struct {
	Addr             string            `yaml:"addr"`
	CorpusDir        string            `yaml:"corpus_dir"`
	TopK             int               `yaml:"top_k"`
	SummarySentences int               `yaml:"summary_sentences"`
	EmbedWorkers     int               `yaml:"embed_workers"`
	Chunker          ChunkerConfig     `yaml:"chunker"`
	VectorStore      VectorStoreConfig `yaml:"vector_store"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	LogLevel string         `yaml:"log_level"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Backend  BackendConfig  `yaml:"backend"`
	Chat     ChatConfig     `yaml:"chat"`
	Server   ServerConfig   `yaml:"server"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/curator/config.yaml.
// If neither exists, it writes defaults to ~/.config/curator/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "curator", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		LogLevel: "info",
		Embedder: EmbedderConfig{
			Type:      "local",
			Dimension: MiniLMDimension,
			Local:     &LocalEmbedderConfig{Model: DefaultLocalModel},
		},
		Backend: BackendConfig{URL: DefaultBackendURL},
		Chat:    ChatConfig{Mode: "demo", ResponseDelayMs: intPtr(2500)},
		Server: ServerConfig{
			Addr:             ":8080",
			TopK:             3,
			SummarySentences: 3,
			EmbedWorkers:     4,
			Chunker:          ChunkerConfig{Type: "sentence", SentencesPerChunk: 3, OverlapSentences: 1},
			VectorStore:      VectorStoreConfig{Type: "memory"},
		},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = def.Embedder.Type
	}
	if cfg.Embedder.Dimension == 0 && cfg.Embedder.Type == "hashing" {
		cfg.Embedder.Dimension = def.Embedder.Dimension
	}
	if cfg.Embedder.Type == "local" {
		if cfg.Embedder.Local == nil {
			cfg.Embedder.Local = &LocalEmbedderConfig{}
		}
		if cfg.Embedder.Local.Model == "" && cfg.Embedder.Local.ModelPath == "" {
			cfg.Embedder.Local.Model = DefaultLocalModel
		}
		if cfg.Embedder.Dimension == 0 && cfg.Embedder.Local.Model == DefaultLocalModel {
			cfg.Embedder.Dimension = MiniLMDimension
		}
	}
	if cfg.Embedder.Type == "remote" && cfg.Embedder.Remote != nil {
		if cfg.Embedder.Remote.Model == "" {
			cfg.Embedder.Remote.Model = "sentence-transformers/all-MiniLM-L6-v2"
		}
		if cfg.Embedder.Remote.TimeoutSecs == 0 {
			cfg.Embedder.Remote.TimeoutSecs = 30
		}
	}
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = def.Backend.URL
	}
	if cfg.Chat.Mode == "" {
		cfg.Chat.Mode = def.Chat.Mode
	}
	if cfg.Chat.ResponseDelayMs == nil {
		cfg.Chat.ResponseDelayMs = def.Chat.ResponseDelayMs
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.TopK == 0 {
		cfg.Server.TopK = def.Server.TopK
	}
	if cfg.Server.SummarySentences == 0 {
		cfg.Server.SummarySentences = def.Server.SummarySentences
	}
	if cfg.Server.EmbedWorkers == 0 {
		cfg.Server.EmbedWorkers = def.Server.EmbedWorkers
	}
	if cfg.Server.Chunker.Type == "" {
		cfg.Server.Chunker.Type = def.Server.Chunker.Type
	}
	if cfg.Server.Chunker.SentencesPerChunk == 0 {
		cfg.Server.Chunker.SentencesPerChunk = def.Server.Chunker.SentencesPerChunk
	}
	if cfg.Server.VectorStore.Type == "" {
		cfg.Server.VectorStore.Type = def.Server.VectorStore.Type
	}
	if q := cfg.Server.VectorStore.Qdrant; q != nil {
		if q.Collection == "" {
			q.Collection = "curator"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}
}

// applyEnv lets the environment (and a .env file loaded by main) override
// the few settings that differ between machines.
func applyEnv(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv("CURATOR_BACKEND_URL")); v != "" {
		cfg.Backend.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("CURATOR_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
}

// CheckEmbedderBackend rejects pairing the hashing model with a backend
// that is not on this machine. Its vectors only mean something to a
// reference backend indexed with the same model.
func CheckEmbedderBackend(cfg *AppConfig) error {
	if cfg.Embedder.Type != "hashing" || IsLocalURL(cfg.Backend.URL) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrOfflineEmbedderRemoteBackend, cfg.Backend.URL)
}

// IsLocalURL reports whether raw points at localhost or a loopback address.
func IsLocalURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func intPtr(v int) *int { return &v }
