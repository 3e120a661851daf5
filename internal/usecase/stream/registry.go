package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/internal/domain/repositories"
	"github.com/johnquangdev/meeting-scribe/internal/metrics"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/insight"
	"github.com/johnquangdev/meeting-scribe/pkg/config"
)

// sessionState bundles one session with its assembly state. All fields are
// guarded by mu; the registry hands out access only through locked methods.
type sessionState struct {
	mu         sync.Mutex
	session    *entities.LiveSession
	transcript *entities.Transcript
	speakers   map[string]*entities.Speaker

	actionItems int
	inflight    sync.WaitGroup // Chunk pipelines still running for this session
}

// StatusSnapshot is the read-only view returned by Status.
type StatusSnapshot struct {
	SessionID        uuid.UUID              `json:"session_id"`
	MeetingID        uuid.UUID              `json:"meeting_id"`
	Status           entities.SessionStatus `json:"status"`
	ChunksProcessed  int                    `json:"chunks_processed"`
	ChunksFailed     int                    `json:"chunks_failed"`
	TranscriptLength int                    `json:"transcript_length"`
	ActionItemCount  int                    `json:"action_item_count"`
	DurationSeconds  float64                `json:"duration_seconds"`
	SpeakerCount     int                    `json:"speaker_count"`
}

// Registry owns the lifecycle of all live sessions: one entry per active
// connection, created by start, destroyed by stop, disconnect-then-expiry,
// or the sweeper. It is the only component that routes inbound events to a
// session and the only one allowed to change session status.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionState

	buffer         *ChunkBuffer
	pipeline       *Pipeline
	extractor      *insight.Extractor
	transcriptRepo repositories.TranscriptRepository
	sink           EventSink
	cfg            *config.PipelineConfig
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

// NewRegistry constructs the session registry.
func NewRegistry(
	buffer *ChunkBuffer,
	pipeline *Pipeline,
	extractor *insight.Extractor,
	transcriptRepo repositories.TranscriptRepository,
	sink EventSink,
	cfg *config.PipelineConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Registry {
	if sink == nil {
		sink = NopSink{}
	}
	return &Registry{
		sessions:       make(map[uuid.UUID]*sessionState),
		buffer:         buffer,
		pipeline:       pipeline,
		extractor:      extractor,
		transcriptRepo: transcriptRepo,
		sink:           sink,
		cfg:            cfg,
		metrics:        m,
		logger:         logger,
	}
}

// Start creates a session in active state and its running transcript.
func (r *Registry) Start(ctx context.Context, connectionID string, meetingID uuid.UUID, title string) (*entities.LiveSession, error) {
	session := entities.NewLiveSession(connectionID, meetingID, title)
	transcript := entities.NewTranscript(meetingID, session.ID)
	transcript.ModelUsed = "assemblyai"

	st := &sessionState{
		session:    session,
		transcript: transcript,
		speakers:   make(map[string]*entities.Speaker),
	}

	r.mu.Lock()
	r.sessions[session.ID] = st
	r.mu.Unlock()

	// Durability only; in-memory state stays authoritative for the session
	if r.transcriptRepo != nil {
		if err := r.transcriptRepo.CreateTranscript(ctx, transcript); err != nil {
			if r.logger != nil {
				r.logger.Warn("⚠️ Failed to persist transcript row", zap.Error(err))
			}
		}
	}

	if r.metrics != nil {
		r.metrics.SessionsStarted.Inc()
		r.metrics.ActiveSessions.Inc()
	}
	if r.logger != nil {
		r.logger.Info("🚀 Session started",
			zap.String("session_id", session.ID.String()),
			zap.String("meeting_id", meetingID.String()),
			zap.Duration("chunk_window", r.buffer.Window()),
		)
	}
	return session, nil
}

// ChunkWindow reports the configured sealing window.
func (r *Registry) ChunkWindow() time.Duration {
	return r.buffer.Window()
}

// Append routes an inbound audio fragment to the session's chunk buffer.
// forcedFlush seals the current buffer immediately regardless of elapsed
// time. A sealed chunk is dispatched to the pipeline without blocking on
// any previous chunk's processing.
func (r *Registry) Append(ctx context.Context, sessionID uuid.UUID, data []byte, clientTimestamp time.Time, forcedFlush bool) error {
	st, err := r.lookup(sessionID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	if st.session.IsTerminal() {
		st.mu.Unlock()
		return entities.ErrSessionNotFound
	}

	chunk, err := r.buffer.Append(st.session, data, clientTimestamp)
	if err != nil {
		st.mu.Unlock()
		return err
	}
	if chunk == nil && forcedFlush {
		chunk = r.buffer.Flush(st.session)
	}
	st.mu.Unlock()

	if chunk != nil {
		r.dispatch(st, chunk)
	}
	return nil
}

// Stop transitions the session to flushing, seals any partial chunk, and
// finalizes in the background: once all in-flight chunk pipelines drain,
// the final insight pass runs and the session completes.
func (r *Registry) Stop(ctx context.Context, sessionID uuid.UUID) error {
	st, err := r.lookup(sessionID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	switch st.session.Status {
	case entities.SessionStatusActive, entities.SessionStatusDisconnected:
		// Stop is valid; a disconnected session can still complete
	case entities.SessionStatusFlushing:
		st.mu.Unlock()
		return entities.ErrSessionEnded
	default:
		st.mu.Unlock()
		return entities.ErrSessionNotFound
	}

	st.session.Status = entities.SessionStatusFlushing
	chunk := r.buffer.Flush(st.session)
	st.mu.Unlock()

	if r.logger != nil {
		r.logger.Info("🛑 Session stopping",
			zap.String("session_id", sessionID.String()),
			zap.Bool("final_chunk", chunk != nil),
		)
	}

	if chunk != nil {
		r.dispatch(st, chunk)
	}

	go r.finalize(st)
	return nil
}

// Disconnect marks an active session as disconnected. Processing of already
// sealed chunks continues; no new audio is accepted. The session can still
// complete if an explicit stop arrives before the sweeper expires it.
func (r *Registry) Disconnect(sessionID uuid.UUID) {
	st, err := r.lookup(sessionID)
	if err != nil {
		return
	}

	st.mu.Lock()
	if st.session.Status == entities.SessionStatusActive {
		st.session.Status = entities.SessionStatusDisconnected
		st.session.LastActivity = time.Now()
		if r.logger != nil {
			r.logger.Warn("🔌 Session disconnected",
				zap.String("session_id", sessionID.String()),
			)
		}
	}
	st.mu.Unlock()
}

// Status returns a read-only snapshot of the session.
func (r *Registry) Status(sessionID uuid.UUID) (*StatusSnapshot, error) {
	st, err := r.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return &StatusSnapshot{
		SessionID:        st.session.ID,
		MeetingID:        st.session.MeetingID,
		Status:           st.session.Status,
		ChunksProcessed:  st.session.ChunksProcessed,
		ChunksFailed:     st.session.ChunksFailed,
		TranscriptLength: len(st.transcript.Text),
		ActionItemCount:  st.actionItems,
		DurationSeconds:  st.session.Duration.Seconds(),
		SpeakerCount:     len(st.speakers),
	}, nil
}

// ExpireStale moves active and disconnected sessions past the hard age
// ceiling to expired and drops terminal sessions that have lingered past
// the grace period. Called by the sweeper only.
func (r *Registry) ExpireStale(ttl, grace time.Duration) int {
	r.mu.Lock()
	var stale []*sessionState
	for id, st := range r.sessions {
		st.mu.Lock()
		switch {
		case !st.session.IsTerminal() && st.session.Age() > ttl:
			stale = append(stale, st)
		case st.session.IsTerminal() && time.Since(st.session.LastActivity) > grace:
			delete(r.sessions, id)
		}
		st.mu.Unlock()
	}
	r.mu.Unlock()

	for _, st := range stale {
		st.mu.Lock()
		st.session.Status = entities.SessionStatusExpired
		sessionID := st.session.ID
		st.mu.Unlock()

		if r.metrics != nil {
			r.metrics.SessionsExpired.Inc()
			r.metrics.ActiveSessions.Dec()
		}
		if r.logger != nil {
			r.logger.Warn("🧹 Session expired",
				zap.String("session_id", sessionID.String()),
			)
		}
	}
	return len(stale)
}

func (r *Registry) lookup(sessionID uuid.UUID) (*sessionState, error) {
	r.mu.RLock()
	st, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, entities.ErrSessionNotFound
	}

	st.mu.Lock()
	expired := st.session.Status == entities.SessionStatusExpired
	st.mu.Unlock()
	if expired {
		// Expired sessions behave as if they were never there
		return nil, entities.ErrSessionNotFound
	}
	return st, nil
}

func (r *Registry) dispatch(st *sessionState, chunk *entities.Chunk) {
	if r.metrics != nil {
		r.metrics.ChunksSealed.Inc()
		r.metrics.ChunkSize.Observe(float64(chunk.RawBytes))
	}
	st.inflight.Add(1)
	if !r.pipeline.Enqueue(st, chunk) {
		st.inflight.Done()
	}
}

// finalize drains the session's in-flight chunk pipelines, runs the final
// insight pass over the complete transcript, and completes the session.
// Extraction failure does not prevent completion.
func (r *Registry) finalize(st *sessionState) {
	st.inflight.Wait()

	ctx := context.Background()

	st.mu.Lock()
	sessionID := st.session.ID
	meetingID := st.session.MeetingID
	transcriptID := st.transcript.ID
	text := st.transcript.Text
	duration := int(st.session.Duration.Seconds())
	st.mu.Unlock()

	var event *entities.FinalSummaryEvent
	if r.extractor != nil {
		result, summary, err := r.extractor.FinalAnalysis(ctx, meetingID, transcriptID, text, duration)
		switch {
		case err != nil:
			if r.logger != nil {
				r.logger.Error("❌ Final analysis failed",
					zap.String("session_id", sessionID.String()),
					zap.Error(err),
				)
			}
			r.sink.Publish(ctx, sessionID, entities.EventError, &entities.ErrorEvent{
				SessionID: sessionID,
				MeetingID: meetingID,
				Kind:      "extraction_failed",
				Message:   err.Error(),
			})
		case result != nil:
			event = &entities.FinalSummaryEvent{
				SessionID: sessionID,
				MeetingID: meetingID,
				Summary:   result.ExecutiveSummary,
				KeyPoints: result.KeyPoints,
				Decisions: result.Decisions,
				Topics:    result.Topics,
				Sentiment: result.OverallSentiment,
			}
		case summary != nil:
			// Transcript was too short for full analysis
			event = &entities.FinalSummaryEvent{
				SessionID: sessionID,
				MeetingID: meetingID,
				Summary:   summary.ExecutiveSummary,
			}
		}
	}
	if event == nil {
		event = &entities.FinalSummaryEvent{
			SessionID: sessionID,
			MeetingID: meetingID,
		}
	}

	st.mu.Lock()
	st.session.Status = entities.SessionStatusCompleted
	st.session.LastActivity = time.Now()
	if event.Summary != "" {
		st.transcript.Summary = event.Summary
	}
	st.transcript.Progress = 100
	transcript := *st.transcript
	sessionDuration := st.session.Duration
	st.mu.Unlock()

	if r.transcriptRepo != nil {
		if err := r.transcriptRepo.UpdateTranscript(ctx, &transcript); err != nil {
			if r.logger != nil {
				r.logger.Warn("⚠️ Failed to persist final transcript", zap.Error(err))
			}
		}
	}

	r.sink.Publish(ctx, sessionID, entities.EventFinalSummary, event)

	if r.metrics != nil {
		r.metrics.ActiveSessions.Dec()
		r.metrics.SessionDuration.Observe(sessionDuration.Seconds())
	}
	if r.logger != nil {
		r.logger.Info("✅ Session completed",
			zap.String("session_id", sessionID.String()),
			zap.Int("word_count", transcript.WordCount),
			zap.Float64("duration_seconds", sessionDuration.Seconds()),
		)
	}
}

// IsNotFound reports whether err means the session does not exist or has
// already reached a state where the event is meaningless.
func IsNotFound(err error) bool {
	return errors.Is(err, entities.ErrSessionNotFound)
}
