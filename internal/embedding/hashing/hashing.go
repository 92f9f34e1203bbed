// Package hashing provides an offline embedding model based on feature
// hashing. It needs no network access or model files, which makes it the
// default for local runs and the reference backend.
package hashing

import (
	"context"
	"errors"
	"hash/fnv"
	"regexp"
	"strings"

	"curator/internal/embedding"
)

// DefaultDimension matches the output size of all-MiniLM-L6-v2.
const DefaultDimension = 384

// Model hashes each token and its character trigrams into a signed
// feature vector of fixed dimension.
type Model struct {
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// Loader builds a hashing Model.
type Loader struct {
	Dimension int
}

// Load builds the model. It never touches the network.
func (l Loader) Load(ctx context.Context) (embedding.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return New(l.Dimension)
}

// New creates a hashing model with the given output dimension.
func New(dimension int) (*Model, error) {
	if dimension == 0 {
		dimension = DefaultDimension
	}
	if dimension < 0 {
		return nil, errors.New("hashing: dimension must be positive")
	}
	return &Model{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    defaultStopwords(),
	}, nil
}

// Name returns the identifier of this model.
func (m *Model) Name() string { return "hashing" }

// Dimension returns the size of every feature row.
func (m *Model) Dimension() int { return m.dimension }

// Features returns one row per non-stopword token. Text without usable
// tokens is hashed as a single token so the result is never empty.
func (m *Model) Features(ctx context.Context, text string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tokens := m.tokenize(text)
	if len(tokens) == 0 {
		trimmed := strings.ToLower(strings.TrimSpace(text))
		if trimmed == "" {
			return nil, embedding.ErrEmptyText
		}
		tokens = []string{trimmed}
	}
	rows := make([][]float64, len(tokens))
	for i, tok := range tokens {
		row := make([]float64, m.dimension)
		m.add(row, "w:"+tok, 1.0)
		for _, g := range trigrams(tok) {
			m.add(row, "g:"+g, 0.5)
		}
		rows[i] = row
	}
	return rows, nil
}

func (m *Model) add(row []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(m.dimension))
	// top bit decides the sign so collisions tend to cancel
	if sum>>63 == 1 {
		weight = -weight
	}
	row[idx] += weight
}

func (m *Model) tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := m.tokenPattern.FindAllString(lower, -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := m.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func trigrams(token string) []string {
	runes := []rune("<" + token + ">")
	if len(runes) < 3 {
		return nil
	}
	out := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out = append(out, string(runes[i:i+3]))
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now", "what", "how", "their",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
