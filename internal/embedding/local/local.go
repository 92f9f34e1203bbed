// Package local runs a sentence-transformer in process through hugot's
// pure Go ONNX backend, so no inference server is needed.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"

	"curator/internal/embedding"
)

// DefaultModel is an ONNX export of sentence-transformers/all-MiniLM-L6-v2.
const DefaultModel = "KnightsAnalytics/all-MiniLM-L6-v2"

// Config configures the in-process model.
type Config struct {
	// Model is a Hugging Face repository downloaded into ModelsDir on
	// first use.
	Model string
	// ModelPath is an already downloaded model directory. It wins over Model.
	ModelPath string
	// ModelsDir defaults to <user cache dir>/curator/models.
	ModelsDir string
	// Dimension is the expected output size. Zero accepts the model's.
	Dimension int
}

// runFunc embeds a batch of inputs, one pooled vector per input.
type runFunc func(inputs []string) ([][]float32, error)

// Model is a loaded feature-extraction pipeline implementing embedding.Model.
type Model struct {
	name      string
	dimension int
	run       runFunc
	close     func() error
}

// Loader resolves the model files, starts a hugot session and runs one
// warm-up inference to learn the dimension.
type Loader struct {
	Config Config
}

// Load implements embedding.Loader.
func (l Loader) Load(ctx context.Context) (embedding.Model, error) {
	path, err := l.modelPath()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("hugot session: %w", err)
	}
	pipe, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: path,
		Name:      "curator-embed",
	})
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("feature-extraction pipeline: %w", err)
	}
	run := func(inputs []string) ([][]float32, error) {
		out, err := pipe.RunPipeline(inputs)
		if err != nil {
			return nil, err
		}
		return out.Embeddings, nil
	}
	m, err := newModel(ctx, l.name(path), l.Config.Dimension, run, session.Destroy)
	if err != nil {
		_ = session.Destroy()
		return nil, err
	}
	return m, nil
}

func (l Loader) name(path string) string {
	if l.Config.Model != "" {
		return l.Config.Model
	}
	return filepath.Base(path)
}

// modelPath returns a directory holding the model, downloading it when
// it is not cached yet.
func (l Loader) modelPath() (string, error) {
	if l.Config.ModelPath != "" {
		if _, err := os.Stat(l.Config.ModelPath); err != nil {
			return "", fmt.Errorf("model path: %w", err)
		}
		return l.Config.ModelPath, nil
	}
	model := l.Config.Model
	if model == "" {
		model = DefaultModel
	}
	dir := l.Config.ModelsDir
	if dir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(cache, "curator", "models")
	}
	cached := filepath.Join(dir, strings.ReplaceAll(model, "/", "_"))
	if hasONNX(cached) {
		return cached, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path, err := hugot.DownloadModel(model, dir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("download %s: %w", model, err)
	}
	return path, nil
}

func hasONNX(dir string) bool {
	matches, err := filepath.Glob(filepath.Join(dir, "*.onnx"))
	return err == nil && len(matches) > 0
}

func newModel(ctx context.Context, name string, dimension int, run runFunc, closeFn func() error) (*Model, error) {
	m := &Model{name: name, dimension: dimension, run: run, close: closeFn}
	features, err := m.Features(ctx, "warm up")
	if err != nil {
		return nil, fmt.Errorf("warm-up inference: %w", err)
	}
	got := len(features[0])
	if dimension != 0 && dimension != got {
		return nil, fmt.Errorf("%w: model returned %d, configured %d", embedding.ErrDimensionMismatch, got, dimension)
	}
	m.dimension = got
	return m, nil
}

// Name implements embedding.Model.
func (m *Model) Name() string { return m.name }

// Dimension implements embedding.Model.
func (m *Model) Dimension() int { return m.dimension }

// Features returns a single row: hugot already mean-pools the token
// outputs, and pooling one row again leaves it unchanged.
func (m *Model) Features(ctx context.Context, text string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := m.run([]string{text})
	if err != nil {
		return nil, err
	}
	if len(out) != 1 || len(out[0]) == 0 {
		return nil, embedding.ErrNoFeatures
	}
	row := make([]float64, len(out[0]))
	for i, v := range out[0] {
		row[i] = float64(v)
	}
	return [][]float64{row}, nil
}

// Close destroys the hugot session.
func (m *Model) Close() error {
	if m.close == nil {
		return nil
	}
	return m.close()
}

var _ embedding.Model = (*Model)(nil)
