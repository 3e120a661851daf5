package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// AIJobRepository handles AI job tracking data operations
type AIJobRepository struct {
	db *gorm.DB
}

// NewAIJobRepository creates a new AI job repository
func NewAIJobRepository(db *gorm.DB) *AIJobRepository {
	return &AIJobRepository{db: db}
}

// Create creates a new AI job
func (r *AIJobRepository) Create(ctx context.Context, job *entities.AIJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// Update updates an AI job
func (r *AIJobRepository) Update(ctx context.Context, job *entities.AIJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).Save(job).Error
}

// FindByID retrieves an AI job by ID
func (r *AIJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.AIJob, error) {
	var job entities.AIJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// FindByExternalJobID retrieves an AI job by the provider's job ID
func (r *AIJobRepository) FindByExternalJobID(ctx context.Context, externalJobID string) (*entities.AIJob, error) {
	var job entities.AIJob
	if err := r.db.WithContext(ctx).Where("external_job_id = ?", externalJobID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// FindByRecordingID retrieves all AI jobs for a recording, newest first
func (r *AIJobRepository) FindByRecordingID(ctx context.Context, recordingID uuid.UUID) ([]*entities.AIJob, error) {
	var jobs []*entities.AIJob
	if err := r.db.WithContext(ctx).
		Where("recording_id = ?", recordingID).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
