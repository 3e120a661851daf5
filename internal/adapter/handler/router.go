package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/johnquangdev/meeting-scribe/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg              *config.Config
	streamHandler    *StreamHandler
	sessionHandler   *SessionHandler
	meetingHandler   *MeetingHandler
	recordingHandler *RecordingHandler
	webhookHandler   *AIWebhookHandler
}

// NewRouter creates a new router with all handlers
func NewRouter(
	cfg *config.Config,
	streamHandler *StreamHandler,
	sessionHandler *SessionHandler,
	meetingHandler *MeetingHandler,
	recordingHandler *RecordingHandler,
	webhookHandler *AIWebhookHandler,
) *Router {
	return &Router{
		cfg:              cfg,
		streamHandler:    streamHandler,
		sessionHandler:   sessionHandler,
		meetingHandler:   meetingHandler,
		recordingHandler: recordingHandler,
		webhookHandler:   webhookHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupStreamRoutes(v1)
	rt.setupMeetingRoutes(v1)
	rt.setupWebhookRoutes(v1)
}

// setupStreamRoutes configures live ingestion and session routes
func (rt *Router) setupStreamRoutes(g *echo.Group) {
	if rt.streamHandler != nil {
		g.GET("/stream", rt.streamHandler.Handle)
	} else {
		g.GET("/stream", rt.notImplemented)
	}

	sessions := g.Group("/sessions")
	if rt.sessionHandler != nil {
		sessions.GET("/:id/status", rt.sessionHandler.GetStatus)
	} else {
		sessions.GET("/:id/status", rt.notImplemented)
	}
}

// setupMeetingRoutes configures meeting artifact routes
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meetings := g.Group("/meetings")

	if rt.meetingHandler != nil {
		meetings.GET("/:id/transcript", rt.meetingHandler.GetTranscript)
		meetings.GET("/:id/action-items", rt.meetingHandler.GetActionItems)
		meetings.GET("/:id/summary", rt.meetingHandler.GetSummary)
		meetings.GET("/:id/recordings", rt.meetingHandler.ListRecordings)
		meetings.GET("/:id/recordings/:recording_id", rt.meetingHandler.GetRecording)
	} else {
		meetings.GET("/:id/transcript", rt.notImplemented)
		meetings.GET("/:id/action-items", rt.notImplemented)
		meetings.GET("/:id/summary", rt.notImplemented)
		meetings.GET("/:id/recordings", rt.notImplemented)
		meetings.GET("/:id/recordings/:recording_id", rt.notImplemented)
	}

	if rt.recordingHandler != nil {
		meetings.POST("/:id/recordings", rt.recordingHandler.Upload)
	} else {
		meetings.POST("/:id/recordings", rt.notImplemented)
	}
}

// setupWebhookRoutes configures provider callback routes
func (rt *Router) setupWebhookRoutes(g *echo.Group) {
	webhooks := g.Group("/webhooks")

	if rt.webhookHandler != nil {
		webhooks.POST("/assemblyai", rt.webhookHandler.HandleAssemblyAIWebhook)
	} else {
		webhooks.POST("/assemblyai", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Please initialize the required handler in main.go",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	env := "production"
	if rt.cfg != nil && rt.cfg.Server.Environment != "" {
		env = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": env,
	})
}
