package chat

import (
	"context"
	"encoding/json"
	"strings"

	"curator/internal/domain"
	"curator/internal/rag"
)

// LiveResponder answers through the embedding-and-query path.
type LiveResponder struct {
	asker rag.Asker
}

// NewLiveResponder wraps a rag.Service (or anything that can Ask).
func NewLiveResponder(asker rag.Asker) *LiveResponder {
	return &LiveResponder{asker: asker}
}

// Respond asks the backend. A structured answer is used as is; any other
// payload becomes the message content as indented JSON.
func (l *LiveResponder) Respond(ctx context.Context, prompt string) (domain.Answer, error) {
	raw, err := l.asker.Ask(ctx, prompt)
	if err != nil {
		return domain.Answer{}, err
	}
	return decodeAnswer(raw), nil
}

func decodeAnswer(raw json.RawMessage) domain.Answer {
	var a domain.Answer
	if err := json.Unmarshal(raw, &a); err == nil && strings.TrimSpace(a.Content) != "" {
		return a
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return domain.Answer{Content: s}
	}
	return domain.Answer{Content: rag.Pretty(raw)}
}
