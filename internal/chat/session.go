package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"curator/internal/domain"
	"curator/internal/rag"
)

// DefaultDelay is the artificial pause before an assistant reply.
const DefaultDelay = 2500 * time.Millisecond

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrAlreadyResolved = errors.New("reply already resolved")
)

// Pending is a submitted user message waiting for its reply.
type Pending struct {
	User domain.Message

	prev    <-chan struct{}
	done    chan struct{}
	claimed atomic.Bool
}

// Session accumulates a chat transcript. User messages are appended on
// Submit; assistant replies are appended by Resolve in the same order
// the prompts were submitted.
type Session struct {
	transcript *Transcript
	responder  Responder
	delay      time.Duration
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.Mutex
	tail    chan struct{}
	pending int
}

// Option customizes a Session.
type Option func(*Session)

// WithDelay overrides DefaultDelay. Negative values are treated as zero.
func WithDelay(d time.Duration) Option {
	return func(s *Session) {
		if d < 0 {
			d = 0
		}
		s.delay = d
	}
}

// WithLogger sets the session logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession creates an empty session answered by responder.
func NewSession(responder Responder, opts ...Option) *Session {
	done := make(chan struct{})
	close(done)
	s := &Session{
		transcript: &Transcript{},
		responder:  responder,
		delay:      DefaultDelay,
		logger:     slog.Default(),
		now:        time.Now,
		tail:       done,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit appends a user message and returns the ticket to resolve its
// reply with.
func (s *Session) Submit(text string) (*Pending, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	msg := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transcript.Append(msg); err != nil {
		return nil, err
	}
	p := &Pending{User: msg, prev: s.tail, done: make(chan struct{})}
	s.tail = p.done
	s.pending++
	return p, nil
}

// Resolve waits for the reply delay, asks the responder and appends the
// assistant message once every earlier reply has been appended. A
// responder failure still produces a message carrying the generic error
// text. If ctx ends first nothing is appended. Each Pending can be
// resolved once; later calls return ErrAlreadyResolved.
func (s *Session) Resolve(ctx context.Context, p *Pending) (domain.Message, error) {
	if !p.claimed.CompareAndSwap(false, true) {
		return domain.Message{}, ErrAlreadyResolved
	}
	defer func() {
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()
	}()

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			s.release(p)
			return domain.Message{}, ctx.Err()
		}
	}

	msg := domain.Message{
		ID:   uuid.NewString(),
		Role: domain.RoleAssistant,
	}
	answer, err := s.responder.Respond(ctx, p.User.Content)
	if err != nil {
		s.logger.Error("assistant reply failed", "stage", rag.StageOf(err), "error", err)
		msg.Content = rag.UserMessage(err)
	} else {
		msg.Content = answer.Content
		msg.Sources = answer.Sources
		if answer.Confidence != nil {
			c := *answer.Confidence
			msg.Confidence = &c
		}
	}

	select {
	case <-p.prev:
	case <-ctx.Done():
		s.release(p)
		return domain.Message{}, ctx.Err()
	}
	defer close(p.done)
	msg.Timestamp = s.now()
	if err := s.transcript.Append(msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// release hands the ordering slot of an abandoned reply to its successor
// once the predecessor is done.
func (s *Session) release(p *Pending) {
	go func() {
		<-p.prev
		close(p.done)
	}()
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []domain.Message { return s.transcript.Messages() }

// Len returns the transcript length.
func (s *Session) Len() int { return s.transcript.Len() }

// Typing reports whether any reply is still outstanding.
func (s *Session) Typing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}
