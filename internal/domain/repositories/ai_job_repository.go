package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// AIJobRepository defines persistence operations for provider job tracking
type AIJobRepository interface {
	Create(ctx context.Context, job *entities.AIJob) error
	Update(ctx context.Context, job *entities.AIJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.AIJob, error)
	FindByExternalJobID(ctx context.Context, externalJobID string) (*entities.AIJob, error)
	FindByRecordingID(ctx context.Context, recordingID uuid.UUID) ([]*entities.AIJob, error)
}
