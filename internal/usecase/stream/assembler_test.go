package stream

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/pkg/ai"
)

func sealedChunk(st *sessionState, index int) *entities.Chunk {
	return &entities.Chunk{
		SessionID: st.session.ID,
		MeetingID: st.session.MeetingID,
		Index:     index,
		Status:    entities.ChunkStatusSealed,
		Window:    testPipelineConfig().ChunkWindow,
	}
}

func TestCommit_OrdersSegmentsByChunkIndex(t *testing.T) {
	sink := &recordingSink{}
	a := NewAssembler(nil, nil, nil, sink, testPipelineConfig(), nil, nil)
	st := newSessionState(uuid.New())

	// Chunk 1 finishes processing before chunk 0
	a.Commit(context.Background(), st, sealedChunk(st, 1), &ai.SpeechResult{
		Text: "second part", Duration: 35, Confidence: 0.9,
	})
	a.Commit(context.Background(), st, sealedChunk(st, 0), &ai.SpeechResult{
		Text: "first part", Duration: 35, Confidence: 0.9,
	})

	if st.transcript.Text != "first part second part" {
		t.Fatalf("transcript not reordered by chunk index: %q", st.transcript.Text)
	}
	for i, seg := range st.transcript.Segments {
		if seg.Sequence != i {
			t.Fatalf("segment %d has sequence %d", i, seg.Sequence)
		}
	}
	if st.session.ChunksProcessed != 2 {
		t.Fatalf("expected 2 processed chunks, got %d", st.session.ChunksProcessed)
	}

	updates := sink.byEvent(entities.EventTranscriptUpdate)
	if len(updates) != 2 {
		t.Fatalf("expected 2 transcript updates, got %d", len(updates))
	}
}

func TestCommit_AssignsAbsoluteTimes(t *testing.T) {
	a := NewAssembler(nil, nil, nil, nil, testPipelineConfig(), nil, nil)
	st := newSessionState(uuid.New())

	result := &ai.SpeechResult{
		Text:       "late chunk",
		Duration:   35,
		Confidence: 0.9,
		Utterances: []ai.Utterance{utterance("A", "late chunk", 2, 6)},
	}
	a.Commit(context.Background(), st, sealedChunk(st, 3), result)

	seg := st.transcript.Segments[0]
	wantStart := 3 * 35.0
	if seg.StartTime != wantStart+2 || seg.EndTime != wantStart+6 {
		t.Fatalf("utterance times not offset by chunk position: [%v, %v]", seg.StartTime, seg.EndTime)
	}
}

func TestCommit_ConservesSpeakersAcrossChunks(t *testing.T) {
	a := NewAssembler(nil, nil, nil, nil, testPipelineConfig(), nil, nil)
	st := newSessionState(uuid.New())

	a.Commit(context.Background(), st, sealedChunk(st, 0), &ai.SpeechResult{
		Text: "one two", Duration: 35,
		Utterances: []ai.Utterance{
			utterance("A", "one", 0, 5),
			utterance("B", "two", 5, 10),
		},
	})
	a.Commit(context.Background(), st, sealedChunk(st, 1), &ai.SpeechResult{
		Text: "three", Duration: 35,
		Utterances: []ai.Utterance{utterance("A", "three", 1, 4)},
	})

	if len(st.speakers) != 2 {
		t.Fatalf("expected 2 distinct speakers, got %d", len(st.speakers))
	}
	a1 := st.speakers["A"]
	if a1 == nil {
		t.Fatal("speaker A missing from roster")
	}
	if a1.SpeakingTime != 8 {
		t.Fatalf("speaker A speaking time not accumulated: %v", a1.SpeakingTime)
	}
	if a1.UtteranceCount != 2 {
		t.Fatalf("speaker A utterance count: %d", a1.UtteranceCount)
	}

	// Both segments for label A resolve to the same speaker row
	var ids []uuid.UUID
	for _, seg := range st.transcript.Segments {
		if seg.SpeakerLabel == "A" && seg.SpeakerID != nil {
			ids = append(ids, *seg.SpeakerID)
		}
	}
	if len(ids) != 2 || ids[0] != ids[1] {
		t.Fatalf("label A mapped to inconsistent speaker ids: %v", ids)
	}
}

func TestCommit_AveragesConfidence(t *testing.T) {
	a := NewAssembler(nil, nil, nil, nil, testPipelineConfig(), nil, nil)
	st := newSessionState(uuid.New())

	a.Commit(context.Background(), st, sealedChunk(st, 0), &ai.SpeechResult{Text: "x", Duration: 35, Confidence: 0.8})
	a.Commit(context.Background(), st, sealedChunk(st, 1), &ai.SpeechResult{Text: "y", Duration: 35, Confidence: 0.6})

	got := st.transcript.ConfidenceScore
	if got < 0.699 || got > 0.701 {
		t.Fatalf("expected running average 0.7, got %v", got)
	}
}

func TestFail_DegradesChunkWithoutStoppingSession(t *testing.T) {
	sink := &recordingSink{}
	a := NewAssembler(nil, nil, nil, sink, testPipelineConfig(), nil, nil)
	st := newSessionState(uuid.New())

	chunk := sealedChunk(st, 0)
	a.Fail(context.Background(), st, chunk, "gateway_unavailable", errors.New("upstream 503"))

	if chunk.Status != entities.ChunkStatusFailed {
		t.Fatalf("chunk status = %s", chunk.Status)
	}
	if st.session.ChunksFailed != 1 {
		t.Fatalf("failed counter = %d", st.session.ChunksFailed)
	}
	if !st.session.AcceptsAudio() {
		t.Fatal("session should remain active after a chunk failure")
	}

	errs := sink.byEvent(entities.EventError)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error event, got %d", len(errs))
	}
	ev := errs[0].Payload.(*entities.ErrorEvent)
	if ev.ChunkIndex == nil || *ev.ChunkIndex != 0 {
		t.Fatal("error event missing chunk index")
	}
	if ev.Kind != "gateway_unavailable" {
		t.Fatalf("error kind = %s", ev.Kind)
	}
}
