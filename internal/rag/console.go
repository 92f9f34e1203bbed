package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
)

// Asker is what the console needs from Service.
type Asker interface {
	Ask(ctx context.Context, text string) (json.RawMessage, error)
}

// Console holds the state of the single-query view: the last answer,
// the error indicator and whether a request is in flight. Concurrent
// runs are not serialized; the last one to finish wins.
type Console struct {
	asker Asker

	mu       sync.Mutex
	answer   json.RawMessage
	errMsg   string
	failures int
	loading  int
}

// NewConsole creates an empty console.
func NewConsole(asker Asker) *Console {
	return &Console{asker: asker}
}

// Run submits text. On success the answer replaces the previous one and
// the error is cleared. On failure the previous answer is kept and the
// error indicator is set to GenericMessage.
func (c *Console) Run(ctx context.Context, text string) error {
	c.mu.Lock()
	c.errMsg = ""
	c.loading++
	c.mu.Unlock()

	answer, err := c.asker.Ask(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading--
	if err != nil {
		c.errMsg = UserMessage(err)
		c.failures++
		return err
	}
	c.answer = answer
	return nil
}

// Answer returns the last successful answer.
func (c *Console) Answer() json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answer
}

// Error returns the error indicator, empty when the last run succeeded.
func (c *Console) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Failures counts how many runs have set the error indicator.
func (c *Console) Failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

// Loading reports whether any run is in flight.
func (c *Console) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading > 0
}

// Pretty renders an answer as indented JSON, falling back to the raw
// bytes when they are not valid JSON.
func Pretty(answer json.RawMessage) string {
	if len(answer) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, answer, "", "  "); err != nil {
		return string(answer)
	}
	return buf.String()
}
