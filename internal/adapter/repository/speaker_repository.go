package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// SpeakerRepository handles speaker roster data operations
type SpeakerRepository struct {
	db *gorm.DB
}

// NewSpeakerRepository creates a new speaker repository
func NewSpeakerRepository(db *gorm.DB) *SpeakerRepository {
	return &SpeakerRepository{db: db}
}

// UpsertSpeaker inserts a speaker or updates its running aggregates when the
// same id is written again by a later chunk.
func (r *SpeakerRepository) UpsertSpeaker(ctx context.Context, speaker *entities.Speaker) error {
	if speaker == nil {
		return errors.New("speaker cannot be nil")
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"speaking_time", "word_count", "confidence", "utterance_count", "display_name", "updated_at",
			}),
		}).
		Create(speaker).Error
}

// GetSpeakersByTranscriptID retrieves the roster for a transcript
func (r *SpeakerRepository) GetSpeakersByTranscriptID(ctx context.Context, transcriptID uuid.UUID) ([]*entities.Speaker, error) {
	var speakers []*entities.Speaker
	if err := r.db.WithContext(ctx).
		Where("transcript_id = ?", transcriptID).
		Order("label ASC").
		Find(&speakers).Error; err != nil {
		return nil, err
	}
	return speakers, nil
}
