package stream

import (
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// ChunkBuffer accumulates raw audio bytes for a session until the chunk
// window elapses, then seals the buffer into a Chunk. The caller serializes
// access per session; the buffer itself holds no state and is shared by all
// sessions.
type ChunkBuffer struct {
	window time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewChunkBuffer creates a buffer sealing on the given window.
func NewChunkBuffer(window time.Duration, logger *zap.Logger) *ChunkBuffer {
	return &ChunkBuffer{
		window: window,
		now:    time.Now,
		logger: logger,
	}
}

// Window returns the nominal chunk window.
func (b *ChunkBuffer) Window() time.Duration {
	return b.window
}

// Append adds raw bytes to the session's unsealed buffer. If the elapsed
// time since the buffer started reaches the chunk window, the buffer seals
// and the sealed chunk is returned; otherwise the returned chunk is nil.
// At most one chunk seals per append.
func (b *ChunkBuffer) Append(session *entities.LiveSession, data []byte, clientTimestamp time.Time) (*entities.Chunk, error) {
	if !session.AcceptsAudio() {
		return nil, entities.ErrSessionEnded
	}

	now := b.now()
	if len(session.Unsealed) == 0 {
		session.BufferStart = now
	}
	session.Unsealed = append(session.Unsealed, data...)
	session.LastActivity = now
	if !clientTimestamp.IsZero() {
		session.ClientTimestamp = clientTimestamp
	}

	if now.Sub(session.BufferStart) >= b.window {
		return b.seal(session, false), nil
	}
	return nil, nil
}

// Flush seals whatever is in the unsealed buffer regardless of elapsed time.
// Returns nil if the buffer is empty, so a stop after a natural seal does
// not produce an extra empty chunk.
func (b *ChunkBuffer) Flush(session *entities.LiveSession) *entities.Chunk {
	if len(session.Unsealed) == 0 {
		return nil
	}
	return b.seal(session, true)
}

func (b *ChunkBuffer) seal(session *entities.LiveSession, final bool) *entities.Chunk {
	now := b.now()
	elapsed := now.Sub(session.BufferStart)
	if elapsed > b.window {
		elapsed = b.window
	}

	chunk := &entities.Chunk{
		SessionID: session.ID,
		MeetingID: session.MeetingID,
		Index:     session.ChunkIndex,
		Status:    entities.ChunkStatusSealed,
		RawBytes:  len(session.Unsealed),
		Window:    b.window,
		Audio:     session.Unsealed,
		SealedAt:  now,
		Final:     final,
	}

	session.ChunkIndex++
	session.Unsealed = nil
	session.BufferStart = now
	session.Duration += elapsed
	session.LastActivity = now

	if b.logger != nil {
		b.logger.Info("📦 Chunk sealed",
			zap.String("session_id", session.ID.String()),
			zap.Int("chunk_index", chunk.Index),
			zap.Int("raw_bytes", chunk.RawBytes),
			zap.Bool("final", final),
		)
	}
	return chunk
}
