package handler

import (
	"io"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-scribe/errors"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/recording"
	"github.com/johnquangdev/meeting-scribe/pkg/ai"
)

// AIWebhookHandler handles incoming webhooks from AI providers (AssemblyAI)
type AIWebhookHandler struct {
	svc    *recording.Service
	secret string
	logger *zap.Logger
}

// NewAIWebhookHandler creates a new handler
func NewAIWebhookHandler(svc *recording.Service, secret string, logger *zap.Logger) *AIWebhookHandler {
	return &AIWebhookHandler{svc: svc, secret: secret, logger: logger}
}

// HandleAssemblyAIWebhook receives transcript completion webhooks
func (h *AIWebhookHandler) HandleAssemblyAIWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}

	// AssemblyAI signs requests in a header; try common header names
	if h.secret != "" {
		signature := c.Request().Header.Get("x-assemblyai-signature")
		if signature == "" {
			signature = c.Request().Header.Get("Authorization")
		}
		if !ai.VerifyHMAC(h.secret, body, signature) {
			if h.logger != nil {
				h.logger.Warn("⚠️ Webhook signature verification failed")
			}
			return HandleError(h.logger, c, errors.ErrInvalidArgument("invalid webhook signature"))
		}
	}

	if err := h.svc.HandleWebhook(c.Request().Context(), body); err != nil {
		if h.logger != nil {
			h.logger.Error("ai webhook handler error", zap.Error(err))
		}
		return HandleError(h.logger, c, errors.ErrProcessingFailed(err))
	}
	return HandleSuccess(h.logger, c, map[string]interface{}{"status": "ok"})
}
