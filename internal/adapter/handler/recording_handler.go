package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-scribe/errors"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/recording"
)

// RecordingHandler handles batch recording uploads and reads
type RecordingHandler struct {
	svc    *recording.Service
	logger *zap.Logger
}

func NewRecordingHandler(svc *recording.Service, logger *zap.Logger) *RecordingHandler {
	return &RecordingHandler{svc: svc, logger: logger}
}

// Upload accepts a multipart audio file and kicks off processing in the
// background. The response carries the recording ID to poll.
func (h *RecordingHandler) Upload(c echo.Context) error {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid meeting id"))
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("missing file field"))
	}
	src, err := fileHeader.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrRecordingUploadFailed(err))
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	rec, err := h.svc.Upload(c.Request().Context(), meetingID, fileHeader.Filename, contentType, fileHeader.Size, src)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrRecordingUploadFailed(err))
	}

	// Processing may take minutes; run it detached from the request
	go func() {
		if err := h.svc.Process(context.Background(), rec); err != nil && h.logger != nil {
			h.logger.Error("Recording processing failed",
				zap.String("recording_id", rec.ID.String()),
				zap.Error(err))
		}
	}()

	return HandleSuccess(h.logger, c, rec)
}
