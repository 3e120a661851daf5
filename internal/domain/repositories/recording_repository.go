package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// RecordingRepository defines persistence operations for uploaded recordings
type RecordingRepository interface {
	Create(ctx context.Context, r *entities.Recording) error
	Update(ctx context.Context, r *entities.Recording) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Recording, error)
	FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.Recording, error)
}
