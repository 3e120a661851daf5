package entities

import (
	"time"

	"github.com/google/uuid"
)

// Speaker is a diarization-discovered voice within one session.
// Created the first time a provider label appears; updated on every
// subsequent chunk; never deleted during a live session.
type Speaker struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TranscriptID  uuid.UUID `json:"transcript_id" gorm:"type:uuid;not null;index"`
	MeetingID     uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Label         string    `json:"label" gorm:"type:varchar(50);not null"` // Provider-local, e.g. "A"/"B"
	DisplayName   string    `json:"display_name,omitempty" gorm:"type:varchar(255)"`
	SpeakingTime  float64   `json:"speaking_time"` // Seconds, summed across processed chunks
	WordCount     int       `json:"word_count"`
	Confidence    float64   `json:"confidence"` // Running average
	UtteranceCount int      `json:"utterance_count"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Speaker) TableName() string {
	return "speakers"
}

// NewSpeaker creates a speaker the first time its label is seen.
func NewSpeaker(transcriptID, meetingID uuid.UUID, label string) *Speaker {
	return &Speaker{
		ID:           uuid.New(),
		TranscriptID: transcriptID,
		MeetingID:    meetingID,
		Label:        label,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// Accumulate folds one utterance into the speaker's running aggregates.
func (s *Speaker) Accumulate(duration float64, words int, confidence float64) {
	s.SpeakingTime += duration
	s.WordCount += words
	// Running average over utterance count
	s.Confidence = (s.Confidence*float64(s.UtteranceCount) + confidence) / float64(s.UtteranceCount+1)
	s.UtteranceCount++
	s.UpdatedAt = time.Now()
}
