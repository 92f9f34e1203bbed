package domain

import "encoding/json"

// QueryRequest is the body posted to the RAG backend.
type QueryRequest struct {
	Query     string    `json:"query"`
	Embedding []float64 `json:"embedding"`
}

// QueryResponse is the backend reply. Answer is kept raw because its
// shape is owned by the backend.
type QueryResponse struct {
	Answer json.RawMessage `json:"answer"`
}

// Answer is the structured answer emitted by the reference backend.
// Confidence is nil when the backend reports none.
type Answer struct {
	Content    string   `json:"content"`
	Sources    []Source `json:"sources,omitempty"`
	Confidence *int     `json:"confidence,omitempty"`
}
