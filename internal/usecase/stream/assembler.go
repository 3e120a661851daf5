package stream

import (
	"context"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/internal/domain/repositories"
	"github.com/johnquangdev/meeting-scribe/internal/metrics"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/insight"
	"github.com/johnquangdev/meeting-scribe/pkg/ai"
	"github.com/johnquangdev/meeting-scribe/pkg/config"
)

// Assembler merges one chunk's gateway results into the session's ordered
// transcript and speaker roster. Chunks retried by the invoker can complete
// out of submission order, so segments are re-sorted by (chunk index, start
// time) on every commit instead of trusting arrival order.
type Assembler struct {
	transcriptRepo repositories.TranscriptRepository
	speakerRepo    repositories.SpeakerRepository
	extractor      *insight.Extractor
	sink           EventSink
	cfg            *config.PipelineConfig
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

// NewAssembler constructs the transcript assembler.
func NewAssembler(
	transcriptRepo repositories.TranscriptRepository,
	speakerRepo repositories.SpeakerRepository,
	extractor *insight.Extractor,
	sink EventSink,
	cfg *config.PipelineConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Assembler {
	if sink == nil {
		sink = NopSink{}
	}
	return &Assembler{
		transcriptRepo: transcriptRepo,
		speakerRepo:    speakerRepo,
		extractor:      extractor,
		sink:           sink,
		cfg:            cfg,
		metrics:        m,
		logger:         logger,
	}
}

// Commit folds the chunk's transcription result into the session state,
// persists the new segments and updated speakers, emits a transcript_update,
// and triggers incremental insight extraction once enough unanalyzed text
// has accumulated. Persistence failures are logged, not propagated: the
// in-memory state is authoritative during a live session.
func (a *Assembler) Commit(ctx context.Context, st *sessionState, chunk *entities.Chunk, result *ai.SpeechResult) {
	st.mu.Lock()

	newSegments := a.buildSegments(st, chunk, result)
	st.transcript.Segments = append(st.transcript.Segments, newSegments...)
	st.transcript.SortSegments()
	st.transcript.Regenerate()

	st.transcript.DurationSeconds += result.Duration
	st.transcript.SpeakerCount = len(st.speakers)
	if result.Confidence > 0 {
		n := float64(st.session.ChunksProcessed)
		st.transcript.ConfidenceScore = (st.transcript.ConfidenceScore*n + result.Confidence) / (n + 1)
	}
	if result.Language != "" && st.transcript.Language == "" {
		st.transcript.Language = result.Language
	}

	chunk.MarkCommitted()
	st.session.ChunksProcessed++

	// Extraction threshold check: accumulate text, fire once past minimum
	st.session.UnanalyzedText += " " + result.Text
	var fragment string
	if a.cfg != nil && len(st.session.UnanalyzedText) >= a.cfg.MinExtractChars {
		fragment = st.session.UnanalyzedText
		st.session.UnanalyzedText = ""
	}

	sessionID := st.session.ID
	meetingID := st.session.MeetingID
	update := &entities.TranscriptUpdateEvent{
		SessionID:   sessionID,
		MeetingID:   meetingID,
		ChunkIndex:  chunk.Index,
		NewSegments: newSegments,
		Speakers:    a.roster(st),
		Confidence:  result.Confidence,
		WordCount:   st.transcript.WordCount,
	}
	transcript := *st.transcript
	st.mu.Unlock()

	a.persist(ctx, &transcript, newSegments, update.Speakers)

	a.sink.Publish(ctx, sessionID, entities.EventTranscriptUpdate, update)

	if a.metrics != nil {
		a.metrics.ChunksCommitted.Inc()
	}
	if a.logger != nil {
		a.logger.Info("✅ Chunk committed",
			zap.String("session_id", sessionID.String()),
			zap.Int("chunk_index", chunk.Index),
			zap.Int("new_segments", len(newSegments)),
			zap.Int("word_count", update.WordCount),
		)
	}

	if fragment != "" {
		a.extract(ctx, st, fragment, chunk.Index)
	}
}

// Fail records terminal per-chunk failure and reports it outward. The
// chunk's time range is simply absent from the transcript; the session
// continues.
func (a *Assembler) Fail(ctx context.Context, st *sessionState, chunk *entities.Chunk, kind string, cause error) {
	st.mu.Lock()
	chunk.MarkFailed()
	st.session.ChunksFailed++
	sessionID := st.session.ID
	meetingID := st.session.MeetingID
	st.mu.Unlock()

	if a.metrics != nil {
		a.metrics.ChunksFailed.Inc()
	}
	if a.logger != nil {
		a.logger.Warn("⚠️ Chunk failed",
			zap.String("session_id", sessionID.String()),
			zap.Int("chunk_index", chunk.Index),
			zap.String("kind", kind),
			zap.Error(cause),
		)
	}

	chunkIndex := chunk.Index
	a.sink.Publish(ctx, sessionID, entities.EventError, &entities.ErrorEvent{
		SessionID:  sessionID,
		MeetingID:  meetingID,
		ChunkIndex: &chunkIndex,
		Kind:       kind,
		Message:    cause.Error(),
	})
}

// buildSegments converts gateway output to segments with absolute times.
// Utterance-shaped results (diarization present) produce one segment per
// utterance; text-only results produce a single unattributed segment. The
// caller holds st.mu.
func (a *Assembler) buildSegments(st *sessionState, chunk *entities.Chunk, result *ai.SpeechResult) []entities.TranscriptSegment {
	offset := chunk.StartOffset()

	if len(result.Utterances) == 0 {
		if result.Text == "" {
			return nil
		}
		seg := entities.TranscriptSegment{
			TranscriptID: st.transcript.ID,
			Text:         result.Text,
			StartTime:    offset,
			EndTime:      offset + result.Duration,
			Confidence:   result.Confidence,
			ChunkIndex:   chunk.Index,
			Words:        absoluteWords(result.Words, offset),
		}
		return []entities.TranscriptSegment{seg}
	}

	segments := make([]entities.TranscriptSegment, 0, len(result.Utterances))
	for _, u := range result.Utterances {
		speaker := a.resolveSpeaker(st, u)
		seg := entities.TranscriptSegment{
			TranscriptID: st.transcript.ID,
			SpeakerLabel: u.Speaker,
			Text:         u.Text,
			StartTime:    offset + u.Start,
			EndTime:      offset + u.End,
			Confidence:   u.Confidence,
			ChunkIndex:   chunk.Index,
			Words:        absoluteWords(u.Words, offset),
		}
		if speaker != nil {
			seg.SpeakerID = &speaker.ID
		}
		segments = append(segments, seg)
	}
	return segments
}

// resolveSpeaker maps a provider-local label to the session's speaker
// roster, creating the speaker on first sight and folding the utterance
// into its aggregates otherwise. The caller holds st.mu.
func (a *Assembler) resolveSpeaker(st *sessionState, u ai.Utterance) *entities.Speaker {
	if u.Speaker == "" {
		return nil
	}
	speaker, ok := st.speakers[u.Speaker]
	if !ok {
		speaker = entities.NewSpeaker(st.transcript.ID, st.session.MeetingID, u.Speaker)
		st.speakers[u.Speaker] = speaker
	}
	speaker.Accumulate(u.End-u.Start, countWords(u), u.Confidence)
	return speaker
}

func (a *Assembler) roster(st *sessionState) []entities.Speaker {
	speakers := make([]entities.Speaker, 0, len(st.speakers))
	for _, s := range st.speakers {
		speakers = append(speakers, *s)
	}
	return speakers
}

func (a *Assembler) persist(ctx context.Context, transcript *entities.Transcript, segments []entities.TranscriptSegment, speakers []entities.Speaker) {
	if a.transcriptRepo != nil {
		if len(segments) > 0 {
			if err := a.transcriptRepo.CreateSegments(ctx, segments); err != nil && a.logger != nil {
				a.logger.Warn("⚠️ Failed to persist segments", zap.Error(err))
			}
		}
		if err := a.transcriptRepo.UpdateTranscript(ctx, transcript); err != nil && a.logger != nil {
			a.logger.Warn("⚠️ Failed to persist transcript aggregate", zap.Error(err))
		}
	}
	if a.speakerRepo != nil {
		for i := range speakers {
			if err := a.speakerRepo.UpsertSpeaker(ctx, &speakers[i]); err != nil && a.logger != nil {
				a.logger.Warn("⚠️ Failed to persist speaker", zap.Error(err))
			}
		}
	}
}

// extract runs an incremental insight pass. Failure skips the action items
// for this fragment and nothing else.
func (a *Assembler) extract(ctx context.Context, st *sessionState, fragment string, chunkIndex int) {
	if a.extractor == nil {
		return
	}

	st.mu.Lock()
	sessionID := st.session.ID
	meetingID := st.session.MeetingID
	st.mu.Unlock()

	if a.metrics != nil {
		a.metrics.ExtractionRequests.Inc()
	}

	drafts, err := a.extractor.ExtractIncremental(ctx, meetingID, fragment, chunkIndex)
	if err != nil {
		if a.metrics != nil {
			a.metrics.ExtractionFailures.Inc()
		}
		if a.logger != nil {
			a.logger.Warn("⚠️ Incremental extraction failed",
				zap.String("session_id", sessionID.String()),
				zap.Int("chunk_index", chunkIndex),
				zap.Error(err),
			)
		}
		a.sink.Publish(ctx, sessionID, entities.EventError, &entities.ErrorEvent{
			SessionID:  sessionID,
			MeetingID:  meetingID,
			ChunkIndex: &chunkIndex,
			Kind:       "extraction_failed",
			Message:    err.Error(),
		})
		return
	}

	if len(drafts) == 0 {
		return
	}

	st.mu.Lock()
	st.actionItems += len(drafts)
	st.mu.Unlock()

	if a.metrics != nil {
		a.metrics.ActionItemsFound.Add(float64(len(drafts)))
	}
	for _, draft := range drafts {
		a.sink.Publish(ctx, sessionID, entities.EventActionItemDetected, &entities.ActionItemEvent{
			SessionID:   sessionID,
			MeetingID:   meetingID,
			Title:       draft.Title,
			Assignee:    draft.Assignee,
			DueDateText: draft.DueDateText,
			Priority:    draft.Priority,
			Confidence:  draft.Confidence,
			SourceChunk: draft.SourceChunk,
		})
	}
}

func absoluteWords(words []ai.Word, offset float64) []entities.WordTiming {
	if len(words) == 0 {
		return nil
	}
	out := make([]entities.WordTiming, 0, len(words))
	for _, w := range words {
		out = append(out, entities.WordTiming{
			Word:       w.Text,
			Start:      offset + w.Start,
			End:        offset + w.End,
			Confidence: w.Confidence,
			Speaker:    w.Speaker,
		})
	}
	return out
}

func countWords(u ai.Utterance) int {
	if len(u.Words) > 0 {
		return len(u.Words)
	}
	n := 0
	inWord := false
	for _, r := range u.Text {
		if r == ' ' || r == '\t' || r == '\n' {
			inWord = false
		} else if !inWord {
			inWord = true
			n++
		}
	}
	return n
}
