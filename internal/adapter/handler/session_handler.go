package handler

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-scribe/errors"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/stream"
)

// StatusCache serves session snapshots after the registry has pruned the
// session, and for instances that never owned the session.
type StatusCache interface {
	SetStatus(ctx context.Context, sessionID uuid.UUID, snapshot interface{}) error
	GetStatus(ctx context.Context, sessionID uuid.UUID) ([]byte, bool, error)
}

// SessionHandler serves the HTTP view of live sessions
type SessionHandler struct {
	registry *stream.Registry
	cache    StatusCache
	logger   *zap.Logger
}

func NewSessionHandler(registry *stream.Registry, cache StatusCache, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{registry: registry, cache: cache, logger: logger}
}

// GetStatus returns a point-in-time snapshot of a session
func (h *SessionHandler) GetStatus(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid session id"))
	}

	ctx := c.Request().Context()
	snapshot, err := h.registry.Status(sessionID)
	if err == nil {
		if h.cache != nil {
			if cacheErr := h.cache.SetStatus(ctx, sessionID, snapshot); cacheErr != nil && h.logger != nil {
				h.logger.Warn("⚠️ Failed to cache session status", zap.Error(cacheErr))
			}
		}
		return HandleSuccess(h.logger, c, snapshot)
	}

	if stream.IsNotFound(err) && h.cache != nil {
		data, ok, cacheErr := h.cache.GetStatus(ctx, sessionID)
		if cacheErr == nil && ok {
			return HandleSuccess(h.logger, c, json.RawMessage(data))
		}
	}

	return HandleError(h.logger, c, errors.ErrSessionNotFound(sessionID.String()))
}
