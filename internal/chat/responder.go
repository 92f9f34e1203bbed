package chat

import (
	"context"
	"math/rand"
	"sync"

	"curator/internal/domain"
)

// Responder produces the assistant side of an exchange.
type Responder interface {
	Respond(ctx context.Context, prompt string) (domain.Answer, error)
}

// DemoResponder answers with a pseudo-randomly chosen canned payload.
// The prompt has no influence on the choice.
type DemoResponder struct {
	mu      sync.Mutex
	rnd     *rand.Rand
	answers []domain.Answer
}

// NewDemoResponder returns a responder drawing from CannedAnswers. A nil
// rnd uses a time-seeded source.
func NewDemoResponder(rnd *rand.Rand) *DemoResponder {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &DemoResponder{rnd: rnd, answers: CannedAnswers()}
}

// Respond ignores prompt and returns one of the canned answers.
func (d *DemoResponder) Respond(ctx context.Context, _ string) (domain.Answer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Answer{}, err
	}
	d.mu.Lock()
	i := d.rnd.Intn(len(d.answers))
	d.mu.Unlock()
	return d.answers[i], nil
}
