package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// TranscriptRepository defines persistence operations for transcripts and
// their segments
type TranscriptRepository interface {
	CreateTranscript(ctx context.Context, t *entities.Transcript) error
	UpdateTranscript(ctx context.Context, t *entities.Transcript) error
	GetTranscriptByID(ctx context.Context, id uuid.UUID) (*entities.Transcript, error)
	GetTranscriptByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Transcript, error)

	CreateSegments(ctx context.Context, segments []entities.TranscriptSegment) error
	ReplaceSegments(ctx context.Context, transcriptID uuid.UUID, segments []entities.TranscriptSegment) error
	GetSegmentsByTranscriptID(ctx context.Context, transcriptID uuid.UUID) ([]entities.TranscriptSegment, error)
}

// SpeakerRepository defines persistence operations for the speaker roster
type SpeakerRepository interface {
	UpsertSpeaker(ctx context.Context, speaker *entities.Speaker) error
	GetSpeakersByTranscriptID(ctx context.Context, transcriptID uuid.UUID) ([]*entities.Speaker, error)
}
