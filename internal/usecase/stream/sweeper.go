package stream

import (
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-scribe/pkg/config"
)

// Sweeper is the background janitor: it expires sessions past the hard age
// ceiling and deletes chunk temp files after a grace period. A temp file
// only becomes delete-eligible once its owning pipeline has signaled
// completion through Release, so the sweeper never races an in-flight read.
type Sweeper struct {
	registry *Registry

	interval time.Duration
	ttl      time.Duration
	grace    time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex

	filesMu sync.Mutex
	files   map[string]time.Time // temp path -> release time

	logger *zap.Logger
}

// NewSweeper constructs the lifecycle sweeper.
func NewSweeper(registry *Registry, cfg *config.PipelineConfig, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		registry: registry,
		interval: cfg.SweepInterval,
		ttl:      cfg.SessionTTL,
		grace:    cfg.ChunkGrace,
		stopChan: make(chan struct{}),
		files:    make(map[string]time.Time),
		logger:   logger,
	}
}

// Release marks a chunk temp file as no longer in use. The file is deleted
// on a later sweep, once the grace period has passed.
func (s *Sweeper) Release(path string) {
	s.filesMu.Lock()
	s.files[path] = time.Now()
	s.filesMu.Unlock()
}

// Start launches the periodic sweep loop.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("sweeper already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})

	if s.logger != nil {
		s.logger.Info("🧹 Starting lifecycle sweeper",
			zap.Duration("interval", s.interval),
			zap.Duration("session_ttl", s.ttl),
			zap.Duration("chunk_grace", s.grace),
		)
	}

	s.wg.Add(1)
	go s.loop()
	return nil
}

// Stop halts the sweep loop.
func (s *Sweeper) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return errors.New("sweeper not running")
	}
	close(s.stopChan)
	s.wg.Wait()
	s.running = false
	return nil
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one pass: expire stale sessions, then delete released temp
// files past the grace period. Deletion is strictly best-effort; a missing
// file is simply forgotten.
func (s *Sweeper) Sweep() {
	expired := s.registry.ExpireStale(s.ttl, s.grace)
	if expired > 0 && s.logger != nil {
		s.logger.Info("🧹 Expired stale sessions", zap.Int("count", expired))
	}

	cutoff := time.Now().Add(-s.grace)

	s.filesMu.Lock()
	var eligible []string
	for path, released := range s.files {
		if released.Before(cutoff) {
			eligible = append(eligible, path)
			delete(s.files, path)
		}
	}
	s.filesMu.Unlock()

	for _, path := range eligible {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			if s.logger != nil {
				s.logger.Warn("⚠️ Failed to delete temp file",
					zap.String("path", path),
					zap.Error(err),
				)
			}
			continue
		}
		if s.logger != nil {
			s.logger.Debug("deleted temp file", zap.String("path", path))
		}
	}
}
