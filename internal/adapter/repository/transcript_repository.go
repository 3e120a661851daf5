package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// TranscriptRepository handles transcript and segment data operations
type TranscriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// CreateTranscript creates a new transcript
func (r *TranscriptRepository) CreateTranscript(ctx context.Context, transcript *entities.Transcript) error {
	if transcript == nil {
		return errors.New("transcript cannot be nil")
	}
	return r.db.WithContext(ctx).Create(transcript).Error
}

// UpdateTranscript updates a transcript
func (r *TranscriptRepository) UpdateTranscript(ctx context.Context, transcript *entities.Transcript) error {
	if transcript == nil {
		return errors.New("transcript cannot be nil")
	}
	return r.db.WithContext(ctx).
		Model(&entities.Transcript{}).
		Where("id = ?", transcript.ID).
		Save(transcript).Error
}

// GetTranscriptByID retrieves a transcript by ID
func (r *TranscriptRepository) GetTranscriptByID(ctx context.Context, id uuid.UUID) (*entities.Transcript, error) {
	var transcript entities.Transcript
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&transcript).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transcript, nil
}

// GetTranscriptByMeetingID retrieves a transcript by meeting ID
func (r *TranscriptRepository) GetTranscriptByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Transcript, error) {
	var transcript entities.Transcript
	if err := r.db.WithContext(ctx).Where("meeting_id = ?", meetingID).First(&transcript).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transcript, nil
}

// CreateSegments appends a batch of transcript segments
func (r *TranscriptRepository) CreateSegments(ctx context.Context, segments []entities.TranscriptSegment) error {
	if len(segments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&segments).Error
}

// ReplaceSegments atomically replaces a transcript's segment set. Used by
// batch reprocessing where the whole transcript is rebuilt.
func (r *TranscriptRepository) ReplaceSegments(ctx context.Context, transcriptID uuid.UUID, segments []entities.TranscriptSegment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transcript_id = ?", transcriptID).
			Delete(&entities.TranscriptSegment{}).Error; err != nil {
			return err
		}
		if len(segments) == 0 {
			return nil
		}
		return tx.Create(&segments).Error
	})
}

// GetSegmentsByTranscriptID retrieves all segments for a transcript in
// sequence order
func (r *TranscriptRepository) GetSegmentsByTranscriptID(ctx context.Context, transcriptID uuid.UUID) ([]entities.TranscriptSegment, error) {
	var segments []entities.TranscriptSegment
	if err := r.db.WithContext(ctx).
		Where("transcript_id = ?", transcriptID).
		Order("sequence ASC").
		Find(&segments).Error; err != nil {
		return nil, err
	}
	return segments, nil
}
