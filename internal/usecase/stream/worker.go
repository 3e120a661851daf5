package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/internal/metrics"
	"github.com/johnquangdev/meeting-scribe/pkg/ai"
	"github.com/johnquangdev/meeting-scribe/pkg/config"
	"github.com/johnquangdev/meeting-scribe/pkg/invoker"
	"github.com/johnquangdev/meeting-scribe/pkg/jobcontext"
)

// SpeechProvider is the gateway surface the pipeline needs. Satisfied by
// ai.SpeechGateway.
type SpeechProvider interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
	Transcribe(ctx context.Context, audioURL string, opts ai.SpeechOptions) (*ai.SpeechResult, error)
	Diarize(ctx context.Context, audioURL string, opts ai.SpeechOptions) (*ai.SpeechResult, error)
}

// ObjectStore archives normalized chunk audio for later replay or batch
// reprocessing. Archival is best-effort.
type ObjectStore interface {
	UploadChunk(ctx context.Context, meetingID uuid.UUID, chunkIndex int, data []byte) (string, error)
}

type job struct {
	st    *sessionState
	chunk *entities.Chunk
}

// Pipeline drains sealed chunks through normalize, transcribe/diarize, and
// assemble with a bounded worker pool. Worker count caps system-wide
// provider concurrency independent of session count, so one slow session
// cannot starve the others.
type Pipeline struct {
	queue    chan job
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex

	normalizer *Normalizer
	provider   SpeechProvider
	assembler  *Assembler
	store      ObjectStore
	tempDone   func(path string) // Signals the sweeper that the temp file is release-eligible

	cfg     *config.PipelineConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewPipeline constructs the chunk pipeline. tempDone may be nil; store may
// be nil when archival is disabled.
func NewPipeline(
	normalizer *Normalizer,
	provider SpeechProvider,
	assembler *Assembler,
	store ObjectStore,
	tempDone func(path string),
	cfg *config.PipelineConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Pipeline {
	workers := 4
	if cfg != nil && cfg.WorkerCount > 0 {
		workers = cfg.WorkerCount
	}
	return &Pipeline{
		queue:      make(chan job, workers*8),
		stopChan:   make(chan struct{}),
		normalizer: normalizer,
		provider:   provider,
		assembler:  assembler,
		store:      store,
		tempDone:   tempDone,
		cfg:        cfg,
		metrics:    m,
		logger:     logger,
	}
}

// Start launches the worker pool.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.New("pipeline already running")
	}
	p.running = true
	p.stopChan = make(chan struct{})

	workers := 4
	if p.cfg != nil && p.cfg.WorkerCount > 0 {
		workers = p.cfg.WorkerCount
	}

	if p.logger != nil {
		p.logger.Info("🚀 Starting chunk pipeline",
			zap.Int("worker_count", workers),
		)
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return nil
}

// Stop signals workers and waits for in-flight chunks to finish. Queued
// chunks that never ran are released so session finalization cannot hang.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return errors.New("pipeline not running")
	}

	close(p.stopChan)
	p.wg.Wait()
	p.running = false

	for {
		select {
		case j := <-p.queue:
			j.st.inflight.Done()
		default:
			if p.logger != nil {
				p.logger.Info("✅ Chunk pipeline stopped")
			}
			return nil
		}
	}
}

// Enqueue hands a sealed chunk to the worker pool. Returns false if the
// pipeline is stopped. The call blocks only when the queue is full, which
// is the intended backpressure point.
func (p *Pipeline) Enqueue(st *sessionState, chunk *entities.Chunk) bool {
	select {
	case <-p.stopChan:
		return false
	case p.queue <- job{st: st, chunk: chunk}:
		if p.metrics != nil {
			p.metrics.ChunkQueueDepth.Inc()
		}
		return true
	}
}

func (p *Pipeline) worker(id int) {
	defer p.wg.Done()

	if p.logger != nil {
		p.logger.Info("👷 Pipeline worker started", zap.Int("worker_id", id))
	}

	for {
		select {
		case <-p.stopChan:
			if p.logger != nil {
				p.logger.Info("👷 Pipeline worker stopping", zap.Int("worker_id", id))
			}
			return
		case j := <-p.queue:
			if p.metrics != nil {
				p.metrics.ChunkQueueDepth.Dec()
			}
			ctx, cancel := jobcontext.ChunkBegin(context.Background(), j.st.session.ID, j.chunk.Index, id)
			p.process(ctx, j)
			cancel()
		}
	}
}

// process runs one chunk through normalize, transcribe/diarize, assemble.
// Every failure path degrades the chunk, reports an error event, and leaves
// the session running.
func (p *Pipeline) process(ctx context.Context, j job) {
	defer j.st.inflight.Done()

	chunk := j.chunk
	chunk.Status = entities.ChunkStatusProcessing

	wav, err := p.normalizer.Normalize(chunk)
	if err != nil {
		p.assembler.Fail(ctx, j.st, chunk, failKind(err), err)
		return
	}
	defer p.releaseTemp(chunk)

	p.archive(ctx, chunk, wav)

	start := time.Now()
	if p.metrics != nil {
		p.metrics.ProviderRequests.WithLabelValues("transcribe").Inc()
	}

	result, err := p.transcribe(ctx, wav)
	if err != nil {
		if p.metrics != nil {
			p.metrics.ProviderFailures.WithLabelValues("transcribe").Inc()
		}
		p.assembler.Fail(ctx, j.st, chunk, failKind(err), err)
		return
	}
	if p.metrics != nil {
		p.metrics.ProviderLatency.WithLabelValues("transcribe").Observe(time.Since(start).Seconds())
	}

	p.assembler.Commit(ctx, j.st, chunk, result)
}

// transcribe uploads the normalized audio and runs the configured gateway
// strategy: one combined transcription+diarization call, or two separate
// calls merged into one result. The assembler treats both shapes the same.
func (p *Pipeline) transcribe(ctx context.Context, wav []byte) (*ai.SpeechResult, error) {
	audioURL, err := p.provider.Upload(ctx, bytes.NewReader(wav))
	if err != nil {
		return nil, err
	}

	if p.cfg == nil || !p.cfg.SplitDiarization {
		return p.provider.Transcribe(ctx, audioURL, ai.SpeechOptions{SpeakerLabels: true})
	}

	result, err := p.provider.Transcribe(ctx, audioURL, ai.SpeechOptions{})
	if err != nil {
		return nil, err
	}

	diarized, err := p.provider.Diarize(ctx, audioURL, ai.SpeechOptions{})
	if err != nil {
		// Text survived; only speaker attribution is lost for this chunk
		if p.logger != nil {
			p.logger.Warn("⚠️ Diarization failed, keeping unattributed text", zap.Error(err))
		}
		return result, nil
	}
	result.Utterances = diarized.Utterances
	return result, nil
}

func (p *Pipeline) archive(ctx context.Context, chunk *entities.Chunk, wav []byte) {
	if p.store == nil {
		return
	}
	key, err := p.store.UploadChunk(ctx, chunk.MeetingID, chunk.Index, wav)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("⚠️ Chunk archival failed",
				zap.Int("chunk_index", chunk.Index),
				zap.Error(err),
			)
		}
		return
	}
	if p.logger != nil {
		p.logger.Debug("archived chunk",
			zap.Int("chunk_index", chunk.Index),
			zap.String("object_key", key),
		)
	}
}

// releaseTemp signals that the pipeline is done with the chunk's temp file.
// Actual deletion happens in the sweeper after the grace period.
func (p *Pipeline) releaseTemp(chunk *entities.Chunk) {
	if p.tempDone != nil && chunk.TempPath != "" {
		p.tempDone(chunk.TempPath)
	}
}

func failKind(err error) string {
	switch {
	case errors.Is(err, entities.ErrNormalizationFailed):
		return "normalization_failed"
	case errors.Is(err, invoker.ErrTimeout):
		return "gateway_timeout"
	case errors.Is(err, invoker.ErrRateLimited):
		return "gateway_rate_limited"
	case errors.Is(err, invoker.ErrUnavailable):
		return "gateway_unavailable"
	case errors.Is(err, invoker.ErrRejected):
		return "gateway_rejected"
	default:
		return "gateway_failed"
	}
}
