// Package memory records analysis events in memory so tests can assert
// on what would have been published.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/evergreenlabs/leadscope/internal/game"
)

// PublishedMessage captures one publish call.
type PublishedMessage struct {
	Topic   string
	Payload any
}

// Publisher retains every published payload, in publish order, with a
// per-topic index for targeted assertions.
type Publisher struct {
	mu      sync.RWMutex
	ordered []PublishedMessage
	byTopic map[string][]PublishedMessage
}

// New returns an empty memory Publisher.
func New() *Publisher {
	return &Publisher{byTopic: make(map[string][]PublishedMessage)}
}

var _ game.Publisher = (*Publisher)(nil)

// Publish records the message and returns a pseudo ID.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	msg := PublishedMessage{Topic: topic, Payload: payload}
	p.ordered = append(p.ordered, msg)
	p.byTopic[topic] = append(p.byTopic[topic], msg)
	return fmt.Sprintf("memory-%d", len(p.ordered)), nil
}

// Messages returns every recorded publish in order.
func (p *Publisher) Messages() []PublishedMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PublishedMessage, len(p.ordered))
	copy(out, p.ordered)
	return out
}

// MessagesFor returns the publishes recorded for one topic.
func (p *Publisher) MessagesFor(topic string) []PublishedMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	msgs := p.byTopic[topic]
	out := make([]PublishedMessage, len(msgs))
	copy(out, msgs)
	return out
}
