package entities

import (
	"time"

	"github.com/google/uuid"
)

// ChunkStatus tracks a sealed chunk through its processing pipeline
type ChunkStatus string

const (
	ChunkStatusSealed     ChunkStatus = "sealed"     // Buffer threshold fired, queued for processing
	ChunkStatusProcessing ChunkStatus = "processing" // Picked up by a pipeline worker
	ChunkStatusCommitted  ChunkStatus = "committed"  // Segments persisted, temp file eligible for cleanup
	ChunkStatusFailed     ChunkStatus = "failed"     // Degraded: contributed zero segments
)

// Chunk is one sealed, time-bounded unit of audio awaiting processing.
type Chunk struct {
	SessionID uuid.UUID
	MeetingID uuid.UUID
	Index     int // Monotonic, zero-based within the session
	Status    ChunkStatus

	RawBytes int           // Raw byte length at seal time
	Window   time.Duration // Nominal chunk window the session was sealed with
	Audio    []byte        // Raw audio, cleared once written to temp storage
	TempPath string        // Temporary storage handle, set by the normalizer

	SealedAt    time.Time
	CommittedAt time.Time
	Final       bool // Sealed by an end-of-stream flush
}

// StartOffset returns the chunk's nominal start offset in seconds.
func (c *Chunk) StartOffset() float64 {
	return float64(c.Index) * c.Window.Seconds()
}

// EndOffset returns the chunk's nominal end offset in seconds.
func (c *Chunk) EndOffset() float64 {
	return float64(c.Index+1) * c.Window.Seconds()
}

// MarkCommitted records that the chunk's derived segments were persisted.
// The temp file stays on disk for a grace period to tolerate late consumers.
func (c *Chunk) MarkCommitted() {
	c.Status = ChunkStatusCommitted
	c.CommittedAt = time.Now()
}

// MarkFailed records terminal per-chunk failure. The session continues.
func (c *Chunk) MarkFailed() {
	c.Status = ChunkStatusFailed
	c.CommittedAt = time.Now()
}
