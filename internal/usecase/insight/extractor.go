package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/internal/domain/repositories"
	"github.com/johnquangdev/meeting-scribe/pkg/ai"
	"github.com/johnquangdev/meeting-scribe/pkg/config"
)

// Extractor runs LLM passes over transcript text: incremental action item
// extraction during a live session and a structured analysis at the end.
// Every error it returns wraps ErrExtractionFailed; callers treat extraction
// as best-effort and never fail a session over it.
type Extractor struct {
	groq        *ai.GroqClient
	insightRepo repositories.InsightRepository
	parser      *Parser
	cfg         *config.GroqConfig
	logger      *zap.Logger
}

// NewExtractor constructs the insight extractor.
func NewExtractor(groq *ai.GroqClient, insightRepo repositories.InsightRepository, cfg *config.GroqConfig, logger *zap.Logger) *Extractor {
	return &Extractor{
		groq:        groq,
		insightRepo: insightRepo,
		parser:      NewParser(),
		cfg:         cfg,
		logger:      logger,
	}
}

// ExtractIncremental sends a transcript fragment to the LLM, parses the
// action item drafts out of the response, and persists them. chunkIndex is
// the chunk whose text completed the fragment.
func (e *Extractor) ExtractIncremental(ctx context.Context, meetingID uuid.UUID, fragment string, chunkIndex int) ([]*entities.ActionItem, error) {
	if e.groq == nil {
		return nil, fmt.Errorf("groq client not configured: %w", entities.ErrExtractionFailed)
	}

	raw, err := e.groq.ExtractActionItems(ctx, fragment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrExtractionFailed, err)
	}

	drafts, err := e.parser.ParseActionItems(meetingID, raw, chunkIndex)
	if err != nil {
		if e.logger != nil {
			e.logger.Error("❌ Failed to parse action items response",
				zap.String("meeting_id", meetingID.String()),
				zap.String("raw_response", truncate(raw, 500)),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("%w: %v", entities.ErrExtractionFailed, err)
	}

	if len(drafts) == 0 {
		return nil, nil
	}

	if err := e.insightRepo.SaveActionItems(ctx, drafts); err != nil {
		return nil, fmt.Errorf("%w: failed to save action items: %v", entities.ErrExtractionFailed, err)
	}

	if e.logger != nil {
		e.logger.Info("✅ Action items extracted",
			zap.String("meeting_id", meetingID.String()),
			zap.Int("chunk_index", chunkIndex),
			zap.Int("count", len(drafts)),
		)
	}
	return drafts, nil
}

// FinalAnalysis runs the end-of-meeting structured analysis over the full
// transcript and persists the summary plus any final-pass action items. A
// transcript too short for meaningful analysis gets a minimal summary
// instead of an error.
func (e *Extractor) FinalAnalysis(ctx context.Context, meetingID, transcriptID uuid.UUID, transcript string, durationSeconds int) (*entities.AnalysisResult, *entities.MeetingSummary, error) {
	if e.groq == nil {
		return nil, nil, fmt.Errorf("groq client not configured: %w", entities.ErrExtractionFailed)
	}

	startTime := time.Now()

	if err := e.parser.ValidateTranscriptLength(transcript, durationSeconds); err != nil {
		if e.logger != nil {
			e.logger.Info("⚠️ Meeting too short for detailed analysis",
				zap.String("meeting_id", meetingID.String()),
				zap.Error(err),
			)
		}
		summary, err := e.createMinimalSummary(ctx, meetingID, transcriptID, "Meeting was too short to generate detailed analysis.")
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", entities.ErrExtractionFailed, err)
		}
		return nil, summary, nil
	}

	raw, err := e.groq.GenerateFinalAnalysis(ctx, transcript)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", entities.ErrExtractionFailed, err)
	}

	result, err := e.parser.ParseAnalysis(raw)
	if err != nil {
		if e.logger != nil {
			e.logger.Error("❌ Failed to parse analysis response",
				zap.String("meeting_id", meetingID.String()),
				zap.String("raw_response", truncate(raw, 500)),
				zap.Error(err),
			)
		}
		return nil, nil, fmt.Errorf("%w: %v", entities.ErrExtractionFailed, err)
	}

	summary := entities.NewMeetingSummary(meetingID, transcriptID)
	summary.ExecutiveSummary = result.ExecutiveSummary
	summary.OverallSentiment = result.OverallSentiment
	summary.ModelUsed = e.modelName()
	summary.ProcessingTime = int(time.Since(startTime).Milliseconds())

	if keyPoints, err := json.Marshal(result.KeyPoints); err == nil {
		summary.KeyPoints = keyPoints
	}
	if decisions, err := json.Marshal(result.Decisions); err == nil {
		summary.Decisions = decisions
	}
	if topics, err := json.Marshal(result.Topics); err == nil {
		summary.Topics = topics
	}
	if openQuestions, err := json.Marshal(result.OpenQuestions); err == nil {
		summary.OpenQuestions = openQuestions
	}
	if sentimentBreakdown, err := json.Marshal(result.SpeakerSentiment); err == nil {
		summary.SentimentBreakdown = sentimentBreakdown
	}

	if err := e.insightRepo.SaveMeetingSummary(ctx, summary); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to save meeting summary: %v", entities.ErrExtractionFailed, err)
	}

	if e.logger != nil {
		e.logger.Info("✅ Meeting summary saved",
			zap.String("summary_id", summary.ID.String()),
			zap.String("meeting_id", meetingID.String()),
		)
	}

	// Final-pass action items are saved but never fail the analysis
	if drafts := e.parser.DraftsFromAnalysis(meetingID, result); len(drafts) > 0 {
		if err := e.insightRepo.SaveActionItems(ctx, drafts); err != nil {
			if e.logger != nil {
				e.logger.Warn("⚠️ Failed to save final action items", zap.Error(err))
			}
		} else if e.logger != nil {
			e.logger.Info("✅ Final action items saved", zap.Int("count", len(drafts)))
		}
	}

	return result, summary, nil
}

func (e *Extractor) createMinimalSummary(ctx context.Context, meetingID, transcriptID uuid.UUID, message string) (*entities.MeetingSummary, error) {
	summary := entities.NewMeetingSummary(meetingID, transcriptID)
	summary.ExecutiveSummary = message
	summary.KeyPoints = []byte("[]")
	summary.Decisions = []byte("[]")
	summary.Topics = []byte("[]")
	summary.OpenQuestions = []byte("[]")
	summary.SentimentBreakdown = []byte("{}")
	summary.ModelUsed = e.modelName()

	if err := e.insightRepo.SaveMeetingSummary(ctx, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (e *Extractor) modelName() string {
	if e.cfg != nil && e.cfg.Model != "" {
		return e.cfg.Model
	}
	return "groq"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
