package stream

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/pkg/invoker"
)

type testRig struct {
	registry *Registry
	pipeline *Pipeline
	provider *fakeProvider
	sink     *recordingSink
	clock    *time.Time
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	cfg := testPipelineConfig()
	clock := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	buffer := NewChunkBuffer(cfg.ChunkWindow, nil)
	buffer.now = func() time.Time { return clock }

	sink := &recordingSink{}
	provider := newFakeProvider()
	normalizer := NewNormalizer(cfg.SampleRate, t.TempDir(), nil)
	assembler := NewAssembler(nil, nil, nil, sink, cfg, nil, nil)
	pipeline := NewPipeline(normalizer, provider, assembler, nil, nil, cfg, nil, nil)
	registry := NewRegistry(buffer, pipeline, nil, nil, sink, cfg, nil, nil)

	if err := pipeline.Start(); err != nil {
		t.Fatalf("pipeline start: %v", err)
	}
	t.Cleanup(func() { pipeline.Stop() })

	return &testRig{
		registry: registry,
		pipeline: pipeline,
		provider: provider,
		sink:     sink,
		clock:    &clock,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRegistry_LiveSessionEndToEnd(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	session, err := rig.registry.Start(ctx, "conn-1", uuid.New(), "weekly sync")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	fragment := make([]byte, 32000)

	// Three fragments inside the window: nothing seals
	for i := 0; i < 3; i++ {
		if err := rig.registry.Append(ctx, session.ID, fragment, *rig.clock, false); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		*rig.clock = rig.clock.Add(10 * time.Second)
	}
	if got := len(rig.sink.byEvent(entities.EventTranscriptUpdate)); got != 0 {
		t.Fatalf("chunk sealed before window elapsed: %d updates", got)
	}

	// Fourth fragment crosses the window: chunk 0 seals and processes
	*rig.clock = rig.clock.Add(5 * time.Second)
	if err := rig.registry.Append(ctx, session.ID, fragment, *rig.clock, false); err != nil {
		t.Fatalf("append: %v", err)
	}
	waitFor(t, "first transcript update", func() bool {
		return len(rig.sink.byEvent(entities.EventTranscriptUpdate)) == 1
	})
	update := rig.sink.byEvent(entities.EventTranscriptUpdate)[0].Payload.(*entities.TranscriptUpdateEvent)
	if update.ChunkIndex != 0 {
		t.Fatalf("first update chunk index = %d", update.ChunkIndex)
	}

	// Some trailing audio, then stop: the remainder seals as a final chunk
	// and the session finalizes
	if err := rig.registry.Append(ctx, session.ID, fragment, *rig.clock, false); err != nil {
		t.Fatalf("append remainder: %v", err)
	}
	if err := rig.registry.Stop(ctx, session.ID); err != nil {
		t.Fatalf("stop: %v", err)
	}

	waitFor(t, "session completion", func() bool {
		snap, err := rig.registry.Status(session.ID)
		return err == nil && snap.Status == entities.SessionStatusCompleted
	})

	if got := len(rig.sink.byEvent(entities.EventTranscriptUpdate)); got != 2 {
		t.Fatalf("expected 2 transcript updates, got %d", got)
	}
	if got := len(rig.sink.byEvent(entities.EventFinalSummary)); got != 1 {
		t.Fatalf("expected exactly 1 final summary, got %d", got)
	}

	snap, err := rig.registry.Status(session.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if snap.ChunksProcessed != 2 {
		t.Fatalf("chunks processed = %d", snap.ChunksProcessed)
	}
	if snap.ChunksFailed != 0 {
		t.Fatalf("chunks failed = %d", snap.ChunksFailed)
	}

	// Stop twice is rejected, audio after stop is rejected
	if err := rig.registry.Append(ctx, session.ID, fragment, *rig.clock, false); err == nil {
		t.Fatal("append after completion should fail")
	}
}

func TestRegistry_ChunkFailureDoesNotAbortSession(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	// Second chunk's upload fails terminally
	rig.provider.failEvery[1] = invoker.ErrRejected

	session, err := rig.registry.Start(ctx, "conn-1", uuid.New(), "retro")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	fragment := make([]byte, 32000)
	for chunk := 0; chunk < 5; chunk++ {
		if err := rig.registry.Append(ctx, session.ID, fragment, *rig.clock, false); err != nil {
			t.Fatalf("append: %v", err)
		}
		*rig.clock = rig.clock.Add(36 * time.Second)
		if err := rig.registry.Append(ctx, session.ID, fragment, *rig.clock, false); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := rig.registry.Stop(ctx, session.ID); err != nil {
		t.Fatalf("stop: %v", err)
	}
	waitFor(t, "session completion", func() bool {
		snap, err := rig.registry.Status(session.ID)
		return err == nil && snap.Status == entities.SessionStatusCompleted
	})

	snap, _ := rig.registry.Status(session.ID)
	if snap.ChunksFailed != 1 {
		t.Fatalf("chunks failed = %d", snap.ChunksFailed)
	}
	if snap.ChunksProcessed == 0 {
		t.Fatal("no chunks committed")
	}
	if len(rig.sink.byEvent(entities.EventError)) == 0 {
		t.Fatal("expected an error event for the failed chunk")
	}
	if got := len(rig.sink.byEvent(entities.EventFinalSummary)); got != 1 {
		t.Fatalf("expected 1 final summary, got %d", got)
	}
}

func TestRegistry_ExpireStale(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	session, err := rig.registry.Start(ctx, "conn-1", uuid.New(), "abandoned")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Age the session past the TTL without terminal transition
	rig.registry.mu.Lock()
	st := rig.registry.sessions[session.ID]
	st.session.CreatedAt = time.Now().Add(-5 * time.Hour)
	st.session.LastActivity = st.session.CreatedAt
	rig.registry.mu.Unlock()

	if n := rig.registry.ExpireStale(4*time.Hour, 5*time.Minute); n != 1 {
		t.Fatalf("expected 1 expiration, got %d", n)
	}

	// Expired sessions are indistinguishable from unknown ones
	if _, err := rig.registry.Status(session.ID); !IsNotFound(err) {
		t.Fatalf("expected not-found for expired session, got %v", err)
	}
	if err := rig.registry.Append(ctx, session.ID, make([]byte, 2), time.Now(), false); !IsNotFound(err) {
		t.Fatalf("expected not-found on append, got %v", err)
	}
}

func TestRegistry_UnknownSession(t *testing.T) {
	rig := newTestRig(t)

	if _, err := rig.registry.Status(uuid.New()); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if err := rig.registry.Stop(context.Background(), uuid.New()); !IsNotFound(err) {
		t.Fatalf("expected not-found on stop, got %v", err)
	}
}
