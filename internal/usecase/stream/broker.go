package stream

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is a published session event as delivered to in-process subscribers.
type Event struct {
	SessionID uuid.UUID   `json:"session_id"`
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload"`
}

// Broker fans session events out to in-process subscribers (websocket
// connections) and forwards every event to an optional downstream sink
// (typically Redis pub/sub). Subscriber channels are buffered; a slow
// subscriber drops events rather than blocking the pipeline.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[chan Event]struct{}
	next   EventSink
	logger *zap.Logger
}

func NewBroker(next EventSink, logger *zap.Logger) *Broker {
	return &Broker{
		subs:   make(map[uuid.UUID]map[chan Event]struct{}),
		next:   next,
		logger: logger,
	}
}

// Publish implements EventSink.
func (b *Broker) Publish(ctx context.Context, sessionID uuid.UUID, event string, payload interface{}) error {
	ev := Event{SessionID: sessionID, Event: event, Payload: payload}

	b.mu.RLock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- ev:
		default:
			if b.logger != nil {
				b.logger.Warn("⚠️ Dropping event for slow subscriber",
					zap.String("session_id", sessionID.String()),
					zap.String("event", event))
			}
		}
	}
	b.mu.RUnlock()

	if b.next != nil {
		return b.next.Publish(ctx, sessionID, event, payload)
	}
	return nil
}

// Subscribe registers a channel for a session's events. The returned
// cancel func must be called when the consumer goes away.
func (b *Broker) Subscribe(sessionID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, 64)

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan Event]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[sessionID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, sessionID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}
