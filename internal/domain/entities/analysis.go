package entities

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisResult represents the structured output from LLM analysis
type AnalysisResult struct {
	ExecutiveSummary string                `json:"executive_summary"`
	KeyPoints        []string              `json:"key_points"`
	Decisions        []string              `json:"decisions"`
	Topics           []string              `json:"topics"`
	OpenQuestions    []string              `json:"open_questions"`
	ActionItems      []ActionItemExtracted `json:"action_items"`
	OverallSentiment float64               `json:"overall_sentiment"`
	SpeakerSentiment map[string]float64    `json:"speaker_sentiment"`
}

// ActionItemExtracted represents an action item as returned by the LLM,
// before it is turned into an ActionItem draft.
type ActionItemExtracted struct {
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	AssignedTo       string  `json:"assigned_to"`
	Priority         string  `json:"priority"` // low, medium, high, urgent
	Confidence       float64 `json:"confidence"`
	DueDateMentioned string  `json:"due_date_mentioned"` // e.g. "next week", "by Friday"
	SourceQuote      string  `json:"source_quote"`
}

// MeetingSummary is the persisted final analysis of a meeting, written once
// by the end-of-stream summary pass.
type MeetingSummary struct {
	ID                 uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID          uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;uniqueIndex"`
	TranscriptID       uuid.UUID `json:"transcript_id" gorm:"type:uuid;index"`
	ExecutiveSummary   string    `json:"executive_summary" gorm:"type:text;not null"`
	KeyPoints          []byte    `json:"key_points,omitempty" gorm:"type:jsonb"`
	Decisions          []byte    `json:"decisions,omitempty" gorm:"type:jsonb"`
	Topics             []byte    `json:"topics,omitempty" gorm:"type:jsonb"`
	OpenQuestions      []byte    `json:"open_questions,omitempty" gorm:"type:jsonb"`
	OverallSentiment   float64   `json:"overall_sentiment,omitempty"`
	SentimentBreakdown []byte    `json:"sentiment_breakdown,omitempty" gorm:"type:jsonb"`
	ModelUsed          string    `json:"model_used,omitempty" gorm:"type:varchar(50)"`
	ProcessingTime     int       `json:"processing_time,omitempty"` // in milliseconds
	CreatedAt          time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for MeetingSummary
func (MeetingSummary) TableName() string {
	return "meeting_summaries"
}

// NewMeetingSummary creates a new MeetingSummary entity
func NewMeetingSummary(meetingID, transcriptID uuid.UUID) *MeetingSummary {
	return &MeetingSummary{
		ID:           uuid.New(),
		MeetingID:    meetingID,
		TranscriptID: transcriptID,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}
