package stream

import (
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/pkg/audio"
)

func testChunk(data []byte) *entities.Chunk {
	return &entities.Chunk{
		SessionID: uuid.New(),
		MeetingID: uuid.New(),
		Index:     0,
		Status:    entities.ChunkStatusSealed,
		RawBytes:  len(data),
		Audio:     data,
	}
}

func TestNormalize_WrapsRawPCM(t *testing.T) {
	n := NewNormalizer(16000, t.TempDir(), nil)
	pcm := make([]byte, 32000) // one second of 16kHz mono 16-bit
	chunk := testChunk(pcm)

	wav, err := n.Normalize(chunk)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if !audio.IsWAV(wav) {
		t.Fatal("output is not a WAV container")
	}
	if err := audio.Validate(wav); err != nil {
		t.Fatalf("output failed validation: %v", err)
	}
	dur, err := audio.Duration(wav)
	if err != nil {
		t.Fatalf("duration: %v", err)
	}
	if dur < 0.99 || dur > 1.01 {
		t.Fatalf("expected ~1s duration, got %v", dur)
	}

	if chunk.TempPath == "" {
		t.Fatal("temp path not recorded on chunk")
	}
	if chunk.Audio != nil {
		t.Fatal("raw audio not released after normalization")
	}
	if _, err := os.Stat(chunk.TempPath); err != nil {
		t.Fatalf("temp file missing: %v", err)
	}
}

func TestNormalize_PassesThroughValidWAV(t *testing.T) {
	n := NewNormalizer(16000, t.TempDir(), nil)
	wrapped, err := audio.WrapPCM(make([]byte, 16000), 16000)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	chunk := testChunk(wrapped)

	wav, err := n.Normalize(chunk)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(wav) != len(wrapped) {
		t.Fatalf("valid WAV should pass through unchanged: got %d bytes, want %d", len(wav), len(wrapped))
	}
}

func TestNormalize_EmptyChunkFails(t *testing.T) {
	n := NewNormalizer(16000, t.TempDir(), nil)
	chunk := testChunk(nil)

	_, err := n.Normalize(chunk)
	if err == nil {
		t.Fatal("expected error for empty chunk")
	}
	if !errors.Is(err, entities.ErrNormalizationFailed) {
		t.Fatalf("error should wrap ErrNormalizationFailed: %v", err)
	}
	if !errors.Is(err, entities.ErrEmptyChunk) {
		t.Fatalf("error should wrap ErrEmptyChunk: %v", err)
	}
}
