package entities

import (
	"time"

	"github.com/google/uuid"
)

// ActionItemPriority levels, as extracted by the LLM
const (
	ActionItemPriorityLow    = "low"
	ActionItemPriorityMedium = "medium"
	ActionItemPriorityHigh   = "high"
	ActionItemPriorityUrgent = "urgent"
)

// ActionItem is a draft action item produced by the insight extractor.
// Drafts are created incrementally during a live session and again by the
// final summary pass; this core does not deduplicate them.
type ActionItem struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID   uuid.UUID  `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Title       string     `json:"title" gorm:"type:text;not null"`
	Description string     `json:"description,omitempty" gorm:"type:text"`
	Assignee    string     `json:"assignee,omitempty" gorm:"type:varchar(255)"` // Free text, not resolved to a user
	DueDate     *time.Time `json:"due_date,omitempty" gorm:"type:timestamp"`
	DueDateText string     `json:"due_date_text,omitempty" gorm:"type:varchar(100)"` // e.g. "by Friday"
	Priority    string     `json:"priority" gorm:"type:varchar(20);default:'medium'"`
	Confidence  float64    `json:"confidence"`
	SourceText  string     `json:"source_text,omitempty" gorm:"type:text"` // Transcript span the item came from
	SourceChunk int        `json:"source_chunk" gorm:"default:-1"`         // Originating chunk index; -1 for final pass
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (ActionItem) TableName() string {
	return "action_items"
}

// NewActionItem creates an action item draft for a meeting.
func NewActionItem(meetingID uuid.UUID, title string) *ActionItem {
	return &ActionItem{
		ID:          uuid.New(),
		MeetingID:   meetingID,
		Title:       title,
		Priority:    ActionItemPriorityMedium,
		SourceChunk: -1,
		CreatedAt:   time.Now(),
	}
}
