package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// InsightRepository defines persistence operations for LLM-derived results
type InsightRepository interface {
	SaveActionItems(ctx context.Context, items []*entities.ActionItem) error
	ListActionItemsByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*entities.ActionItem, error)

	SaveMeetingSummary(ctx context.Context, s *entities.MeetingSummary) error
	GetMeetingSummaryByMeeting(ctx context.Context, meetingID uuid.UUID) (*entities.MeetingSummary, error)
}
