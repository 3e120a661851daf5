package entities

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle state of a live recording session
type SessionStatus string

const (
	SessionStatusActive       SessionStatus = "active"       // Accepting audio fragments
	SessionStatusFlushing     SessionStatus = "flushing"     // Stop requested, final chunk + summary in flight
	SessionStatusCompleted    SessionStatus = "completed"    // Terminal, all processing done
	SessionStatusDisconnected SessionStatus = "disconnected" // Connection lost while active
	SessionStatusExpired      SessionStatus = "expired"      // Terminal, sweeper-driven
)

// LiveSession is one live recording's end-to-end processing context.
// It is owned exclusively by the session registry; all mutation happens
// under the registry's per-session lock.
type LiveSession struct {
	ID           uuid.UUID
	ConnectionID string
	MeetingID    uuid.UUID
	MeetingTitle string
	Status       SessionStatus
	CreatedAt    time.Time
	LastActivity time.Time

	// Chunk accumulation state
	ChunkIndex      int       // Index the next sealed chunk will get
	BufferStart     time.Time // When the current unsealed buffer started
	Unsealed        []byte    // Accumulated-but-unsealed audio bytes
	ClientTimestamp time.Time // Latest client-reported timestamp

	// Running aggregates
	Duration        time.Duration
	ChunksProcessed int
	ChunksFailed    int
	UnanalyzedText  string // Transcript text accumulated since the last extraction pass
}

// NewLiveSession creates a session in active state.
func NewLiveSession(connectionID string, meetingID uuid.UUID, title string) *LiveSession {
	now := time.Now()
	return &LiveSession{
		ID:           uuid.New(),
		ConnectionID: connectionID,
		MeetingID:    meetingID,
		MeetingTitle: title,
		Status:       SessionStatusActive,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// IsTerminal reports whether no further events will be accepted.
func (s *LiveSession) IsTerminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusExpired
}

// AcceptsAudio reports whether audio fragments may still be appended.
func (s *LiveSession) AcceptsAudio() bool {
	return s.Status == SessionStatusActive
}

// Age returns how long the session has existed.
func (s *LiveSession) Age() time.Duration {
	return time.Since(s.CreatedAt)
}
