package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-scribe/errors"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/internal/domain/repositories"
)

// MeetingHandler serves the persisted artifacts of a meeting: transcript,
// segments, speakers, action items, summary, and uploaded recordings.
type MeetingHandler struct {
	transcriptRepo repositories.TranscriptRepository
	speakerRepo    repositories.SpeakerRepository
	insightRepo    repositories.InsightRepository
	recordingRepo  repositories.RecordingRepository
	logger         *zap.Logger
}

func NewMeetingHandler(
	transcriptRepo repositories.TranscriptRepository,
	speakerRepo repositories.SpeakerRepository,
	insightRepo repositories.InsightRepository,
	recordingRepo repositories.RecordingRepository,
	logger *zap.Logger,
) *MeetingHandler {
	return &MeetingHandler{
		transcriptRepo: transcriptRepo,
		speakerRepo:    speakerRepo,
		insightRepo:    insightRepo,
		recordingRepo:  recordingRepo,
		logger:         logger,
	}
}

func (h *MeetingHandler) meetingID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument("invalid meeting id")
	}
	return id, nil
}

// GetTranscript returns the meeting transcript with its ordered segments
// and speaker roster
func (h *MeetingHandler) GetTranscript(c echo.Context) error {
	meetingID, err := h.meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	ctx := c.Request().Context()
	transcript, err := h.transcriptRepo.GetTranscriptByMeetingID(ctx, meetingID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed(err))
	}
	if transcript == nil {
		return HandleError(h.logger, c, errors.ErrNotFound("transcript"))
	}

	segments, err := h.transcriptRepo.GetSegmentsByTranscriptID(ctx, transcript.ID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed(err))
	}
	transcript.Segments = segments

	var speakers []*entities.Speaker
	if h.speakerRepo != nil {
		speakers, err = h.speakerRepo.GetSpeakersByTranscriptID(ctx, transcript.ID)
		if err != nil {
			return HandleError(h.logger, c, errors.ErrDBQueryFailed(err))
		}
	}

	return HandleSuccess(h.logger, c, map[string]interface{}{
		"transcript": transcript,
		"speakers":   speakers,
	})
}

// GetActionItems returns all action items detected for a meeting
func (h *MeetingHandler) GetActionItems(c echo.Context) error {
	meetingID, err := h.meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	items, err := h.insightRepo.ListActionItemsByMeeting(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed(err))
	}
	return HandleSuccess(h.logger, c, items)
}

// GetSummary returns the end-of-meeting analysis
func (h *MeetingHandler) GetSummary(c echo.Context) error {
	meetingID, err := h.meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	summary, err := h.insightRepo.GetMeetingSummaryByMeeting(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed(err))
	}
	if summary == nil {
		return HandleError(h.logger, c, errors.ErrNotFound("summary"))
	}
	return HandleSuccess(h.logger, c, summary)
}

// ListRecordings returns the uploaded recordings for a meeting
func (h *MeetingHandler) ListRecordings(c echo.Context) error {
	meetingID, err := h.meetingID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	recordings, err := h.recordingRepo.FindByMeetingID(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed(err))
	}
	return HandleSuccess(h.logger, c, recordings)
}

// GetRecording returns a single recording by ID
func (h *MeetingHandler) GetRecording(c echo.Context) error {
	recordingID, err := uuid.Parse(c.Param("recording_id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid recording id"))
	}

	rec, err := h.recordingRepo.FindByID(c.Request().Context(), recordingID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed(err))
	}
	if rec == nil {
		return HandleError(h.logger, c, errors.ErrRecordingNotFound(recordingID.String()))
	}
	return HandleSuccess(h.logger, c, rec)
}
