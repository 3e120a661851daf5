package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RecordingStatus represents the status of an uploaded recording
type RecordingStatus string

const (
	RecordingStatusUploaded   RecordingStatus = "uploaded"
	RecordingStatusProcessing RecordingStatus = "processing"
	RecordingStatusCompleted  RecordingStatus = "completed"
	RecordingStatusFailed     RecordingStatus = "failed"
)

// Recording represents an already-recorded meeting file submitted through the
// batch upload path. It runs the same pipeline as a live session, as a single
// forced-flush chunk.
type Recording struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID       uuid.UUID       `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Status          RecordingStatus `json:"status" gorm:"type:varchar(20);not null;default:'uploaded';index"`
	ObjectKey       string          `json:"object_key" gorm:"type:text;not null"` // Object store key
	FileSize        int64           `json:"file_size,omitempty"`
	FileFormat      string          `json:"file_format" gorm:"type:varchar(20);default:'wav'"`
	DurationSeconds float64         `json:"duration_seconds,omitempty"`
	ProcessingError *string         `json:"processing_error,omitempty" gorm:"type:text"`
	Metadata        datatypes.JSON  `json:"metadata,omitempty" gorm:"type:jsonb;default:'{}'"`
	UploadedAt      time.Time       `json:"uploaded_at" gorm:"not null;default:now()"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Recording) TableName() string {
	return "recordings"
}

// NewRecording registers an uploaded file for processing.
func NewRecording(meetingID uuid.UUID, objectKey, format string, size int64) *Recording {
	return &Recording{
		ID:         uuid.New(),
		MeetingID:  meetingID,
		Status:     RecordingStatusUploaded,
		ObjectKey:  objectKey,
		FileFormat: format,
		FileSize:   size,
		UploadedAt: time.Now(),
	}
}

// MarkAsProcessing marks the recording as picked up by the pipeline.
func (r *Recording) MarkAsProcessing() {
	r.Status = RecordingStatusProcessing
	r.UpdatedAt = time.Now()
}

// MarkAsCompleted marks the recording as fully transcribed.
func (r *Recording) MarkAsCompleted() {
	r.Status = RecordingStatusCompleted
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// MarkAsFailed records a terminal processing error. This is the batch-path
// judgment the live pipeline never makes for itself: zero successful chunks
// means the whole recording failed.
func (r *Recording) MarkAsFailed(errorMsg string) {
	r.Status = RecordingStatusFailed
	r.ProcessingError = &errorMsg
	r.UpdatedAt = time.Now()
}
