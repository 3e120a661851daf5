package stream

import (
	"context"

	"github.com/google/uuid"
)

// EventSink receives outbound session events (transcript updates, action
// items, final summary, errors). Implementations fan the events out to
// whatever consumes them: the websocket connection, a Redis channel, or a
// test recorder. Publishing is best-effort; a sink failure never affects
// the session.
type EventSink interface {
	Publish(ctx context.Context, sessionID uuid.UUID, event string, payload interface{}) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Publish(ctx context.Context, sessionID uuid.UUID, event string, payload interface{}) error {
	return nil
}
