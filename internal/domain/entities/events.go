package entities

import (
	"github.com/google/uuid"
)

// Outbound event types published to session consumers
const (
	EventTranscriptUpdate   = "transcript_update"
	EventActionItemDetected = "action_item_detected"
	EventFinalSummary       = "final_summary"
	EventError              = "error"
)

// TranscriptUpdateEvent is emitted after each committed chunk.
type TranscriptUpdateEvent struct {
	SessionID   uuid.UUID           `json:"session_id"`
	MeetingID   uuid.UUID           `json:"meeting_id"`
	ChunkIndex  int                 `json:"chunk_index"`
	NewSegments []TranscriptSegment `json:"new_segments"`
	Speakers    []Speaker           `json:"speakers"`
	Confidence  float64             `json:"confidence"`
	WordCount   int                 `json:"word_count"`
}

// ActionItemEvent is emitted for each action item draft as it is detected.
type ActionItemEvent struct {
	SessionID   uuid.UUID  `json:"session_id"`
	MeetingID   uuid.UUID  `json:"meeting_id"`
	Title       string     `json:"title"`
	Assignee    string     `json:"assignee,omitempty"`
	DueDateText string     `json:"due_date,omitempty"`
	Priority    string     `json:"priority"`
	Confidence  float64    `json:"confidence"`
	SourceChunk int        `json:"source_chunk"`
}

// FinalSummaryEvent is emitted exactly once, after the end-of-stream pass.
type FinalSummaryEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	MeetingID uuid.UUID `json:"meeting_id"`
	Summary   string    `json:"summary"`
	KeyPoints []string  `json:"key_points"`
	Decisions []string  `json:"decisions"`
	Topics    []string  `json:"topics"`
	Sentiment float64   `json:"sentiment"`
}

// ErrorEvent reports a non-fatal per-chunk failure without terminating
// the session.
type ErrorEvent struct {
	SessionID  uuid.UUID `json:"session_id"`
	MeetingID  uuid.UUID `json:"meeting_id"`
	ChunkIndex *int      `json:"chunk_index,omitempty"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
}
