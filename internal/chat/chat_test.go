package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curator/internal/domain"
	"curator/internal/rag"
)

type failingResponder struct{}

func (failingResponder) Respond(context.Context, string) (domain.Answer, error) {
	return domain.Answer{}, &rag.Error{Stage: rag.StageNetwork, Err: errors.New("refused")}
}

type echoResponder struct{}

func (echoResponder) Respond(_ context.Context, prompt string) (domain.Answer, error) {
	return domain.Answer{Content: "re: " + prompt}, nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestTranscript_RejectsUnknownRole(t *testing.T) {
	var tr Transcript

	err := tr.Append(domain.Message{Role: "system", Content: "x"})

	assert.ErrorIs(t, err, domain.ErrInvalidRole)
	assert.Equal(t, 0, tr.Len())
}

func TestTranscript_MessagesIsACopy(t *testing.T) {
	var tr Transcript
	require.NoError(t, tr.Append(domain.Message{Role: domain.RoleUser, Content: "a"}))

	msgs := tr.Messages()
	msgs[0].Content = "changed"

	assert.Equal(t, "a", tr.Messages()[0].Content)
}

func TestDemoResponder_IgnoresPrompt(t *testing.T) {
	a := NewDemoResponder(rand.New(rand.NewSource(7)))
	b := NewDemoResponder(rand.New(rand.NewSource(7)))

	for i := 0; i < 10; i++ {
		x, err := a.Respond(context.Background(), "beta blockers")
		require.NoError(t, err)
		y, err := b.Respond(context.Background(), fmt.Sprintf("something else %d", i))
		require.NoError(t, err)
		assert.Equal(t, x, y)
	}
}

func TestDemoResponder_DrawsFromCannedSet(t *testing.T) {
	d := NewDemoResponder(nil)
	canned := CannedAnswers()

	for i := 0; i < 20; i++ {
		got, err := d.Respond(context.Background(), "q")
		require.NoError(t, err)
		assert.Contains(t, canned, got)
	}
}

func TestSession_SubmitAppendsImmediately(t *testing.T) {
	s := NewSession(echoResponder{}, WithDelay(time.Hour), WithLogger(quietLogger()))

	p, err := s.Submit("hello")

	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, domain.RoleUser, s.Messages()[0].Role)
	assert.Equal(t, p.User.ID, s.Messages()[0].ID)
	assert.True(t, s.Typing())
}

func TestSession_RejectsBlank(t *testing.T) {
	s := NewSession(echoResponder{})

	_, err := s.Submit(" \n\t")

	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, 0, s.Len())
}

func TestSession_TwoNMessagesInSubmissionOrder(t *testing.T) {
	const n = 8
	s := NewSession(echoResponder{}, WithDelay(time.Millisecond), WithLogger(quietLogger()))

	pendings := make([]*Pending, n)
	for i := 0; i < n; i++ {
		p, err := s.Submit(fmt.Sprintf("q%d", i))
		require.NoError(t, err)
		pendings[i] = p
	}
	// resolve in reverse to show order does not depend on scheduling
	var wg sync.WaitGroup
	for i := n - 1; i >= 0; i-- {
		wg.Add(1)
		go func(p *Pending) {
			defer wg.Done()
			_, err := s.Resolve(context.Background(), p)
			assert.NoError(t, err)
		}(pendings[i])
	}
	wg.Wait()

	msgs := s.Messages()
	require.Len(t, msgs, 2*n)
	for i := 0; i < n; i++ {
		assert.Equal(t, fmt.Sprintf("q%d", i), msgs[i].Content)
		assert.Equal(t, domain.RoleAssistant, msgs[n+i].Role)
		assert.Equal(t, fmt.Sprintf("re: q%d", i), msgs[n+i].Content)
	}
	assert.False(t, s.Typing())
}

func TestSession_InterleavedExchange(t *testing.T) {
	s := NewSession(NewDemoResponder(rand.New(rand.NewSource(1))), WithDelay(0), WithLogger(quietLogger()))

	for i := 0; i < 3; i++ {
		p, err := s.Submit("question")
		require.NoError(t, err)
		reply, err := s.Resolve(context.Background(), p)
		require.NoError(t, err)
		require.NotNil(t, reply.Confidence)
		assert.NotEmpty(t, reply.Sources)
	}

	msgs := s.Messages()
	require.Len(t, msgs, 6)
	for i, m := range msgs {
		if i%2 == 0 {
			assert.Equal(t, domain.RoleUser, m.Role)
		} else {
			assert.Equal(t, domain.RoleAssistant, m.Role)
		}
	}
}

func TestSession_ResponderFailureShowsGenericMessage(t *testing.T) {
	s := NewSession(failingResponder{}, WithDelay(0), WithLogger(quietLogger()))
	p, err := s.Submit("q")
	require.NoError(t, err)

	reply, err := s.Resolve(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, rag.GenericMessage, reply.Content)
	assert.Equal(t, 2, s.Len())
}

func TestSession_CancelledReplyDoesNotBlockLaterOnes(t *testing.T) {
	s := NewSession(echoResponder{}, WithDelay(20*time.Millisecond), WithLogger(quietLogger()))
	first, err := s.Submit("first")
	require.NoError(t, err)
	second, err := s.Submit("second")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Resolve(ctx, first)
	require.ErrorIs(t, err, context.Canceled)

	reply, err := s.Resolve(context.Background(), second)

	require.NoError(t, err)
	assert.Equal(t, "re: second", reply.Content)
	assert.Equal(t, 3, s.Len())
}

func TestSession_UsesClock(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewSession(echoResponder{}, WithDelay(0), WithClock(func() time.Time { return fixed }))

	p, err := s.Submit("q")
	require.NoError(t, err)
	reply, err := s.Resolve(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, fixed, p.User.Timestamp)
	assert.Equal(t, fixed, reply.Timestamp)
	assert.NotEqual(t, p.User.ID, reply.ID)
}

type rawAsker struct {
	raw json.RawMessage
	err error
}

func (r rawAsker) Ask(context.Context, string) (json.RawMessage, error) { return r.raw, r.err }

func TestLiveResponder_DecodesStructuredAnswer(t *testing.T) {
	l := NewLiveResponder(rawAsker{raw: json.RawMessage(`{"content":"Insulin deficiency","sources":[{"title":"T","category":"C","page":"p. 1"}],"confidence":88}`)})

	a, err := l.Respond(context.Background(), "dka")

	require.NoError(t, err)
	assert.Equal(t, "Insulin deficiency", a.Content)
	require.NotNil(t, a.Confidence)
	assert.Equal(t, 88, *a.Confidence)
	assert.Len(t, a.Sources, 1)
}

func TestSession_KeepsZeroConfidence(t *testing.T) {
	raw := json.RawMessage(`{"content":"No matching passages.","confidence":0}`)
	s := NewSession(NewLiveResponder(rawAsker{raw: raw}), WithDelay(0), WithLogger(quietLogger()))
	p, err := s.Submit("q")
	require.NoError(t, err)

	reply, err := s.Resolve(context.Background(), p)

	require.NoError(t, err)
	require.NotNil(t, reply.Confidence)
	assert.Equal(t, 0, *reply.Confidence)
}

func TestSession_MissingConfidenceStaysNil(t *testing.T) {
	s := NewSession(echoResponder{}, WithDelay(0), WithLogger(quietLogger()))
	p, err := s.Submit("q")
	require.NoError(t, err)

	reply, err := s.Resolve(context.Background(), p)

	require.NoError(t, err)
	assert.Nil(t, reply.Confidence)
}

func TestLiveResponder_FallsBackToJSON(t *testing.T) {
	l := NewLiveResponder(rawAsker{raw: json.RawMessage(`{"text":"x"}`)})

	a, err := l.Respond(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, "{\n  \"text\": \"x\"\n}", a.Content)
}

func TestLiveResponder_PlainString(t *testing.T) {
	l := NewLiveResponder(rawAsker{raw: json.RawMessage(`"just text"`)})

	a, err := l.Respond(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, "just text", a.Content)
}

func TestLiveResponder_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	l := NewLiveResponder(rawAsker{err: boom})

	_, err := l.Respond(context.Background(), "q")

	assert.ErrorIs(t, err, boom)
}

func TestSession_ResolveTwiceIsRejected(t *testing.T) {
	s := NewSession(echoResponder{}, WithDelay(0), WithLogger(quietLogger()))
	p, err := s.Submit("q")
	require.NoError(t, err)
	_, err = s.Resolve(context.Background(), p)
	require.NoError(t, err)

	_, err = s.Resolve(context.Background(), p)

	assert.ErrorIs(t, err, ErrAlreadyResolved)
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.Typing())

	next, err := s.Submit("again")
	require.NoError(t, err)
	reply, err := s.Resolve(context.Background(), next)
	require.NoError(t, err)
	assert.Equal(t, "re: again", reply.Content)
}
