package stream

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

func newTestBuffer(window time.Duration) (*ChunkBuffer, *time.Time) {
	clock := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	b := NewChunkBuffer(window, nil)
	b.now = func() time.Time { return clock }
	return b, &clock
}

func TestAppend_SealsOnWindow(t *testing.T) {
	b, clock := newTestBuffer(35 * time.Second)
	session := entities.NewLiveSession("conn-1", uuid.New(), "standup")

	for i := 0; i < 3; i++ {
		chunk, err := b.Append(session, []byte("audio-fragment"), *clock)
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
		if chunk != nil {
			t.Fatalf("fragment %d sealed before window elapsed", i)
		}
		*clock = clock.Add(10 * time.Second)
	}

	// 35s elapsed since buffer start on this append
	*clock = clock.Add(5 * time.Second)
	chunk, err := b.Append(session, []byte("audio-fragment"), *clock)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if chunk == nil {
		t.Fatal("expected seal after window elapsed")
	}
	if chunk.Index != 0 {
		t.Fatalf("expected first chunk index 0, got %d", chunk.Index)
	}
	if chunk.RawBytes != 4*len("audio-fragment") {
		t.Fatalf("sealed chunk lost bytes: got %d", chunk.RawBytes)
	}
	if len(session.Unsealed) != 0 {
		t.Fatal("unsealed buffer not reset after seal")
	}
	if session.ChunkIndex != 1 {
		t.Fatalf("next chunk index should be 1, got %d", session.ChunkIndex)
	}
}

func TestAppend_RejectsEndedSession(t *testing.T) {
	b, clock := newTestBuffer(35 * time.Second)
	session := entities.NewLiveSession("conn-1", uuid.New(), "standup")
	session.Status = entities.SessionStatusCompleted

	if _, err := b.Append(session, []byte("late audio"), *clock); err != entities.ErrSessionEnded {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}
}

func TestFlush_EmptyBufferReturnsNil(t *testing.T) {
	b, _ := newTestBuffer(35 * time.Second)
	session := entities.NewLiveSession("conn-1", uuid.New(), "standup")

	if chunk := b.Flush(session); chunk != nil {
		t.Fatal("flush of empty buffer should return nil chunk")
	}
}

func TestFlush_IsIdempotent(t *testing.T) {
	b, clock := newTestBuffer(35 * time.Second)
	session := entities.NewLiveSession("conn-1", uuid.New(), "standup")

	if _, err := b.Append(session, []byte("partial"), *clock); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	first := b.Flush(session)
	if first == nil {
		t.Fatal("expected partial chunk from first flush")
	}
	if !first.Final {
		t.Fatal("flushed chunk should be marked final")
	}

	// Stop after a natural seal must not produce an extra empty chunk
	if second := b.Flush(session); second != nil {
		t.Fatalf("second flush produced chunk index %d", second.Index)
	}
}

func TestSeal_CapsElapsedAtWindow(t *testing.T) {
	b, clock := newTestBuffer(35 * time.Second)
	session := entities.NewLiveSession("conn-1", uuid.New(), "standup")

	if _, err := b.Append(session, []byte("fragment"), *clock); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	// Clock jumps far past the window before the next event arrives
	*clock = clock.Add(10 * time.Minute)
	chunk, err := b.Append(session, []byte("fragment"), *clock)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if chunk == nil {
		t.Fatal("expected seal after window elapsed")
	}
	if session.Duration > 35*time.Second {
		t.Fatalf("session duration should be capped at the window, got %v", session.Duration)
	}
}
