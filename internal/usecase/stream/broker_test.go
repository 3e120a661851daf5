package stream

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestBroker_DeliversToSubscribers(t *testing.T) {
	downstream := &recordingSink{}
	b := NewBroker(downstream, nil)
	sessionID := uuid.New()

	ch, cancel := b.Subscribe(sessionID)
	defer cancel()

	if err := b.Publish(context.Background(), sessionID, "transcript_update", map[string]string{"text": "hello"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Event != "transcript_update" || ev.SessionID != sessionID {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("subscriber did not receive event")
	}

	if got := len(downstream.byEvent("transcript_update")); got != 1 {
		t.Fatalf("downstream sink should see the event, got %d", got)
	}
}

func TestBroker_IsolatesSessions(t *testing.T) {
	b := NewBroker(nil, nil)
	a, b1 := uuid.New(), uuid.New()

	chA, cancelA := b.Subscribe(a)
	defer cancelA()

	if err := b.Publish(context.Background(), b1, "status", nil); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case ev := <-chA:
		t.Fatalf("subscriber for another session received %+v", ev)
	default:
	}
}

func TestBroker_CancelStopsDelivery(t *testing.T) {
	b := NewBroker(nil, nil)
	sessionID := uuid.New()

	ch, cancel := b.Subscribe(sessionID)
	cancel()

	if err := b.Publish(context.Background(), sessionID, "status", nil); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	select {
	case ev := <-ch:
		t.Fatalf("cancelled subscriber received %+v", ev)
	default:
	}
}

func TestBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroker(nil, nil)
	sessionID := uuid.New()

	_, cancel := b.Subscribe(sessionID)
	defer cancel()

	// Fill past the channel buffer; publishes must not block.
	for i := 0; i < 100; i++ {
		if err := b.Publish(context.Background(), sessionID, "transcript_update", i); err != nil {
			t.Fatalf("publish %d failed: %v", i, err)
		}
	}
}
