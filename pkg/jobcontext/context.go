package jobcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type KeyContext string

var (
	keySessionID  KeyContext = "session_id"
	keyChunkIndex KeyContext = "chunk_index"
	keyWorkerID   KeyContext = "worker_id"
	keyStartTime  KeyContext = "chunk_start_time"
)

// chunkTimeout bounds one chunk's full pipeline pass, including provider
// polling. A chunk that cannot finish inside this window is failed, not
// waited on.
const chunkTimeout = 10 * time.Minute

// ChunkBegin derives a deadline-bounded context carrying the chunk's
// processing metadata for downstream logging.
func ChunkBegin(parentCtx context.Context, sessionID uuid.UUID, chunkIndex, workerID int) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parentCtx, chunkTimeout)

	ctx = context.WithValue(ctx, keySessionID, sessionID)
	ctx = context.WithValue(ctx, keyChunkIndex, chunkIndex)
	ctx = context.WithValue(ctx, keyWorkerID, workerID)
	ctx = context.WithValue(ctx, keyStartTime, time.Now())

	return ctx, cancel
}

// GetSessionID extracts the session ID from context
func GetSessionID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(keySessionID).(uuid.UUID)
	return id, ok
}

// GetChunkIndex extracts the chunk index from context
func GetChunkIndex(ctx context.Context) (int, bool) {
	idx, ok := ctx.Value(keyChunkIndex).(int)
	return idx, ok
}

// GetWorkerID extracts the worker ID from context
func GetWorkerID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(keyWorkerID).(int)
	return id, ok
}

// Elapsed reports how long the chunk has been processing.
func Elapsed(ctx context.Context) time.Duration {
	start, ok := ctx.Value(keyStartTime).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(start)
}
