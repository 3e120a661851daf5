package entities

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WordTiming represents a single word with time and speaker info.
// Times are in seconds; gateways normalize provider units before this point.
type WordTiming struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker,omitempty"`
}

// TranscriptSegment is one utterance-level unit of assembled output.
// Segments are append-only; only the speaker reference may be attached later.
type TranscriptSegment struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TranscriptID uuid.UUID    `json:"transcript_id" gorm:"type:uuid;not null;index"`
	SpeakerID    *uuid.UUID   `json:"speaker_id,omitempty" gorm:"type:uuid;index"`
	SpeakerLabel string       `json:"speaker_label" gorm:"type:varchar(50)"`
	Text         string       `json:"text" gorm:"type:text;not null"`
	StartTime    float64      `json:"start_time" gorm:"not null"` // Absolute: chunk offset + intra-chunk offset
	EndTime      float64      `json:"end_time" gorm:"not null"`
	Confidence   float64      `json:"confidence" gorm:"default:0.0"`
	ChunkIndex   int          `json:"chunk_index" gorm:"not null;index"`
	Sequence     int          `json:"sequence" gorm:"not null"`
	Words        []WordTiming `json:"words,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt    time.Time    `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (TranscriptSegment) TableName() string {
	return "transcript_segments"
}

// Transcript is the running aggregate of all segments for a session.
// The in-memory copy is authoritative during a live session; the stored row
// exists for durability and downstream consumers only.
type Transcript struct {
	ID              uuid.UUID                                  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID       uuid.UUID                                  `json:"meeting_id" gorm:"type:uuid;not null;index"`
	SessionID       uuid.UUID                                  `json:"session_id" gorm:"type:uuid;index"`
	Text            string                                     `json:"text" gorm:"type:text"`
	Summary         string                                     `json:"summary,omitempty" gorm:"type:text"`
	Language        string                                     `json:"language,omitempty" gorm:"type:varchar(20)"`
	WordCount       int                                        `json:"word_count"`
	ConfidenceScore float64                                    `json:"confidence_score,omitempty"`
	SpeakerCount    int                                        `json:"speaker_count,omitempty"`
	DurationSeconds float64                                    `json:"duration_seconds,omitempty"`
	Progress        float64                                    `json:"progress"` // Processing progress, 0..100
	ModelUsed       string                                     `json:"model_used,omitempty" gorm:"type:varchar(100)"`
	RawData         datatypes.JSONType[map[string]interface{}] `json:"raw_data,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt       time.Time                                  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time                                  `json:"updated_at" gorm:"autoUpdateTime"`

	// In-memory only: the ordered segment list the assembler regenerates from.
	Segments []TranscriptSegment `json:"segments,omitempty" gorm:"-"`
}

// TableName specifies the table name for GORM
func (Transcript) TableName() string {
	return "transcripts"
}

// NewTranscript creates a new running transcript for a session.
func NewTranscript(meetingID, sessionID uuid.UUID) *Transcript {
	return &Transcript{
		ID:        uuid.New(),
		MeetingID: meetingID,
		SessionID: sessionID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// SortSegments orders segments by (chunk index, intra-chunk start time).
// Chunks may complete processing out of submission order when retried, so
// arrival order is never trusted.
func (t *Transcript) SortSegments() {
	sort.SliceStable(t.Segments, func(i, j int) bool {
		if t.Segments[i].ChunkIndex != t.Segments[j].ChunkIndex {
			return t.Segments[i].ChunkIndex < t.Segments[j].ChunkIndex
		}
		return t.Segments[i].StartTime < t.Segments[j].StartTime
	})
	for i := range t.Segments {
		t.Segments[i].Sequence = i
	}
}

// Regenerate rebuilds the concatenated full-text view and word count from
// the (already sorted) segment list.
func (t *Transcript) Regenerate() {
	var sb strings.Builder
	for i, seg := range t.Segments {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(seg.Text)
	}
	t.Text = sb.String()
	t.WordCount = len(strings.Fields(t.Text))
	t.UpdatedAt = time.Now()
}
