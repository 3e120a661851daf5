package recording

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/internal/domain/repositories"
	"github.com/johnquangdev/meeting-scribe/internal/metrics"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/insight"
	"github.com/johnquangdev/meeting-scribe/pkg/ai"
	"github.com/johnquangdev/meeting-scribe/pkg/config"
)

const presignedURLExpiry = 24 * time.Hour

// SpeechProvider is the gateway surface the batch path needs. Submit plus
// either AwaitResult (polling) or Fetch (webhook-driven).
type SpeechProvider interface {
	Submit(ctx context.Context, audioURL string, opts ai.SpeechOptions) (string, error)
	AwaitResult(ctx context.Context, transcriptID string) (*ai.SpeechResult, error)
	Fetch(ctx context.Context, transcriptID string) (*ai.SpeechResult, error)
}

// ObjectStore is the storage surface for uploaded recordings.
type ObjectStore interface {
	UploadRecording(ctx context.Context, meetingID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (string, error)
	GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// Service runs the batch path: an already-recorded file goes through the
// same transcription and insight pipeline as a live session, as a single
// chunk at offset zero.
type Service struct {
	recordingRepo  repositories.RecordingRepository
	jobRepo        repositories.AIJobRepository
	transcriptRepo repositories.TranscriptRepository
	speakerRepo    repositories.SpeakerRepository
	store          ObjectStore
	provider       SpeechProvider
	extractor      *insight.Extractor
	cfg            *config.AssemblyAIConfig
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

func NewService(
	recordingRepo repositories.RecordingRepository,
	jobRepo repositories.AIJobRepository,
	transcriptRepo repositories.TranscriptRepository,
	speakerRepo repositories.SpeakerRepository,
	store ObjectStore,
	provider SpeechProvider,
	extractor *insight.Extractor,
	cfg *config.AssemblyAIConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		recordingRepo:  recordingRepo,
		jobRepo:        jobRepo,
		transcriptRepo: transcriptRepo,
		speakerRepo:    speakerRepo,
		store:          store,
		provider:       provider,
		extractor:      extractor,
		cfg:            cfg,
		metrics:        m,
		logger:         logger,
	}
}

// Upload stores the file and registers it for processing. Processing itself
// is kicked off by the caller via Process.
func (s *Service) Upload(ctx context.Context, meetingID uuid.UUID, filename, contentType string, size int64, reader io.Reader) (*entities.Recording, error) {
	objectKey, err := s.store.UploadRecording(ctx, meetingID, filename, reader, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload recording: %w", err)
	}

	rec := entities.NewRecording(meetingID, objectKey, fileFormat(filename), size)
	if err := s.recordingRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create recording: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("📼 Recording uploaded",
			zap.String("recording_id", rec.ID.String()),
			zap.String("meeting_id", meetingID.String()),
			zap.String("object_key", objectKey),
			zap.Int64("size", size),
		)
	}
	return rec, nil
}

// Process submits the recording to the speech provider. When a webhook base
// URL is configured the method returns after submission and completion is
// driven by HandleWebhook; otherwise it polls to completion inline.
func (s *Service) Process(ctx context.Context, rec *entities.Recording) error {
	rec.MarkAsProcessing()
	if err := s.recordingRepo.Update(ctx, rec); err != nil {
		return fmt.Errorf("update recording: %w", err)
	}

	audioURL, err := s.store.GetFileURL(ctx, rec.ObjectKey, presignedURLExpiry)
	if err != nil {
		return s.fail(ctx, rec, nil, fmt.Errorf("resolve recording url: %w", err))
	}

	job := entities.NewAIJob(rec.MeetingID, rec.ID, entities.AIJobTypeTranscription, audioURL)
	if s.jobRepo != nil {
		if err := s.jobRepo.Create(ctx, job); err != nil {
			return s.fail(ctx, rec, nil, fmt.Errorf("create ai job: %w", err))
		}
	}

	opts := ai.SpeechOptions{SpeakerLabels: true}
	if s.cfg != nil {
		opts.LanguageCode = s.cfg.LanguageCode
		if s.cfg.WebhookBaseURL != "" {
			opts.WebhookURL = strings.TrimRight(s.cfg.WebhookBaseURL, "/") + "/v1/webhooks/assemblyai"
		}
	}

	transcriptID, err := s.provider.Submit(ctx, audioURL, opts)
	if err != nil {
		return s.fail(ctx, rec, job, fmt.Errorf("submit recording: %w", err))
	}

	job.MarkAsSubmitted(transcriptID)
	s.saveJob(ctx, job)

	if s.logger != nil {
		s.logger.Info("🚀 Recording submitted for transcription",
			zap.String("recording_id", rec.ID.String()),
			zap.String("transcript_id", transcriptID),
			zap.Bool("webhook", opts.WebhookURL != ""),
		)
	}

	if opts.WebhookURL != "" {
		return nil
	}

	result, err := s.provider.AwaitResult(ctx, transcriptID)
	if err != nil {
		return s.fail(ctx, rec, job, fmt.Errorf("await transcript: %w", err))
	}
	return s.complete(ctx, rec, job, result)
}

// webhookPayload is the completion notification body AssemblyAI posts.
type webhookPayload struct {
	TranscriptID string `json:"transcript_id"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

// HandleWebhook processes a provider completion notification. The signature
// has already been verified by the handler.
func (s *Service) HandleWebhook(ctx context.Context, body []byte) error {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("parse webhook payload: %w", err)
	}
	if payload.TranscriptID == "" {
		return fmt.Errorf("webhook payload missing transcript_id")
	}

	if s.jobRepo == nil {
		return fmt.Errorf("job tracking not configured")
	}
	job, err := s.jobRepo.FindByExternalJobID(ctx, payload.TranscriptID)
	if err != nil {
		return fmt.Errorf("find job: %w", err)
	}
	if job == nil {
		return fmt.Errorf("no job for transcript %s", payload.TranscriptID)
	}
	if job.Status == entities.AIJobStatusCompleted {
		// Provider retries webhooks; completion is idempotent
		return nil
	}

	job.Metadata.WebhookAttempts++
	rec, err := s.recordingRepo.FindByID(ctx, job.RecordingID)
	if err != nil {
		return fmt.Errorf("find recording: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("no recording %s for job %s", job.RecordingID, job.ID)
	}

	if payload.Status == "error" {
		return s.fail(ctx, rec, job, fmt.Errorf("provider reported failure: %s", payload.Error))
	}

	result, err := s.provider.Fetch(ctx, payload.TranscriptID)
	if err != nil {
		return s.fail(ctx, rec, job, fmt.Errorf("fetch transcript: %w", err))
	}
	return s.complete(ctx, rec, job, result)
}

// complete builds and persists the transcript, speakers, and final insights.
func (s *Service) complete(ctx context.Context, rec *entities.Recording, job *entities.AIJob, result *ai.SpeechResult) error {
	if result.Text == "" {
		return s.fail(ctx, rec, job, fmt.Errorf("no transcribable speech in recording"))
	}

	if job != nil {
		job.MarkAsProcessing()
		s.saveJob(ctx, job)
	}

	transcript, speakers := s.buildTranscript(rec, result)

	if s.transcriptRepo != nil {
		if err := s.transcriptRepo.CreateTranscript(ctx, transcript); err != nil {
			return s.fail(ctx, rec, job, fmt.Errorf("create transcript: %w", err))
		}
		if len(transcript.Segments) > 0 {
			if err := s.transcriptRepo.CreateSegments(ctx, transcript.Segments); err != nil {
				return s.fail(ctx, rec, job, fmt.Errorf("create segments: %w", err))
			}
		}
	}
	if s.speakerRepo != nil {
		for _, sp := range speakers {
			if err := s.speakerRepo.UpsertSpeaker(ctx, sp); err != nil && s.logger != nil {
				s.logger.Warn("⚠️ Failed to persist speaker", zap.Error(err))
			}
		}
	}

	if s.extractor != nil {
		_, summary, err := s.extractor.FinalAnalysis(ctx, rec.MeetingID, transcript.ID, transcript.Text, int(result.Duration))
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("⚠️ Final analysis failed for recording",
					zap.String("recording_id", rec.ID.String()),
					zap.Error(err),
				)
			}
		} else if summary != nil {
			transcript.Summary = summary.ExecutiveSummary
			if s.transcriptRepo != nil {
				if err := s.transcriptRepo.UpdateTranscript(ctx, transcript); err != nil && s.logger != nil {
					s.logger.Warn("⚠️ Failed to persist transcript summary", zap.Error(err))
				}
			}
		}
	}

	rec.DurationSeconds = result.Duration
	rec.MarkAsCompleted()
	if err := s.recordingRepo.Update(ctx, rec); err != nil {
		return fmt.Errorf("update recording: %w", err)
	}
	if job != nil {
		job.Metadata.DurationSeconds = int(result.Duration)
		job.Metadata.Language = result.Language
		job.Metadata.SpeakerCount = len(speakers)
		if job.StartedAt != nil {
			job.Metadata.ProcessingTimeMs = time.Since(*job.StartedAt).Milliseconds()
		}
		job.MarkAsCompleted(&transcript.ID)
		s.saveJob(ctx, job)
	}

	if s.logger != nil {
		s.logger.Info("✅ Recording processed",
			zap.String("recording_id", rec.ID.String()),
			zap.String("transcript_id", transcript.ID.String()),
			zap.Float64("duration_seconds", result.Duration),
			zap.Int("speakers", len(speakers)),
		)
	}
	return nil
}

// buildTranscript converts the gateway result into a transcript at offset
// zero with a speaker roster keyed by the provider's labels.
func (s *Service) buildTranscript(rec *entities.Recording, result *ai.SpeechResult) (*entities.Transcript, []*entities.Speaker) {
	transcript := entities.NewTranscript(rec.MeetingID, rec.ID)
	transcript.ModelUsed = "assemblyai"
	transcript.Language = result.Language
	transcript.ConfidenceScore = result.Confidence
	transcript.DurationSeconds = result.Duration

	roster := make(map[string]*entities.Speaker)

	if len(result.Utterances) == 0 {
		transcript.Segments = []entities.TranscriptSegment{{
			TranscriptID: transcript.ID,
			Text:         result.Text,
			StartTime:    0,
			EndTime:      result.Duration,
			Confidence:   result.Confidence,
			ChunkIndex:   0,
			Words:        wordTimings(result.Words),
		}}
	} else {
		segments := make([]entities.TranscriptSegment, 0, len(result.Utterances))
		for _, u := range result.Utterances {
			seg := entities.TranscriptSegment{
				TranscriptID: transcript.ID,
				SpeakerLabel: u.Speaker,
				Text:         u.Text,
				StartTime:    u.Start,
				EndTime:      u.End,
				Confidence:   u.Confidence,
				ChunkIndex:   0,
				Words:        wordTimings(u.Words),
			}
			if u.Speaker != "" {
				speaker, ok := roster[u.Speaker]
				if !ok {
					speaker = entities.NewSpeaker(transcript.ID, rec.MeetingID, u.Speaker)
					roster[u.Speaker] = speaker
				}
				speaker.Accumulate(u.End-u.Start, len(strings.Fields(u.Text)), u.Confidence)
				seg.SpeakerID = &speaker.ID
			}
			segments = append(segments, seg)
		}
		transcript.Segments = segments
	}

	transcript.SortSegments()
	transcript.Regenerate()
	transcript.SpeakerCount = len(roster)

	speakers := make([]*entities.Speaker, 0, len(roster))
	for _, sp := range roster {
		speakers = append(speakers, sp)
	}
	return transcript, speakers
}

func (s *Service) fail(ctx context.Context, rec *entities.Recording, job *entities.AIJob, cause error) error {
	if s.metrics != nil {
		s.metrics.ChunksFailed.Inc()
	}
	rec.MarkAsFailed(cause.Error())
	if err := s.recordingRepo.Update(ctx, rec); err != nil && s.logger != nil {
		s.logger.Error("Failed to persist recording failure", zap.Error(err))
	}
	if job != nil {
		job.MarkAsFailed(cause.Error())
		s.saveJob(ctx, job)
	}
	if s.logger != nil {
		s.logger.Error("❌ Recording processing failed",
			zap.String("recording_id", rec.ID.String()),
			zap.Error(cause),
		)
	}
	return cause
}

func (s *Service) saveJob(ctx context.Context, job *entities.AIJob) {
	if s.jobRepo == nil {
		return
	}
	if err := s.jobRepo.Update(ctx, job); err != nil && s.logger != nil {
		s.logger.Warn("⚠️ Failed to persist ai job", zap.Error(err))
	}
}

func wordTimings(words []ai.Word) []entities.WordTiming {
	if len(words) == 0 {
		return nil
	}
	out := make([]entities.WordTiming, 0, len(words))
	for _, w := range words {
		out = append(out, entities.WordTiming{
			Word:       w.Text,
			Start:      w.Start,
			End:        w.End,
			Confidence: w.Confidence,
			Speaker:    w.Speaker,
		})
	}
	return out
}

func fileFormat(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		return strings.ToLower(filename[i+1:])
	}
	return "wav"
}
