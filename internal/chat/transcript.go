package chat

import (
	"sync"

	"curator/internal/domain"
)

// Transcript is the append-only, insertion-ordered message list of one
// session.
type Transcript struct {
	mu       sync.RWMutex
	messages []domain.Message
}

// Append adds m to the end of the transcript.
func (t *Transcript) Append(m domain.Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, m)
	return nil
}

// Messages returns a copy of the transcript.
func (t *Transcript) Messages() []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}
