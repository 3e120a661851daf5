package stream

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/pkg/audio"
)

// Normalizer converts a sealed chunk's raw bytes into canonical mono 16-bit
// WAV and writes it to a temporary file. Raw PCM gets a synthesized header;
// already-containered audio is validated as-is. A normalization failure
// drops the chunk, never the session.
type Normalizer struct {
	sampleRate int
	tempDir    string
	logger     *zap.Logger
}

// NewNormalizer creates a normalizer. An empty tempDir uses the OS default.
func NewNormalizer(sampleRate int, tempDir string, logger *zap.Logger) *Normalizer {
	return &Normalizer{
		sampleRate: sampleRate,
		tempDir:    tempDir,
		logger:     logger,
	}
}

// Normalize produces canonical WAV bytes for the chunk and records the temp
// file handle on it. The chunk's raw audio is released once written.
func (n *Normalizer) Normalize(chunk *entities.Chunk) ([]byte, error) {
	if len(chunk.Audio) == 0 {
		return nil, fmt.Errorf("%w: chunk %d: %w", entities.ErrNormalizationFailed, chunk.Index, entities.ErrEmptyChunk)
	}

	var wav []byte
	if audio.IsWAV(chunk.Audio) {
		if err := audio.Validate(chunk.Audio); err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", entities.ErrNormalizationFailed, chunk.Index, err)
		}
		wav = chunk.Audio
	} else {
		wrapped, err := audio.WrapPCM(chunk.Audio, n.sampleRate)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %v", entities.ErrNormalizationFailed, chunk.Index, err)
		}
		wav = wrapped
	}

	f, err := os.CreateTemp(n.tempDir, "chunk-*.wav")
	if err != nil {
		return nil, fmt.Errorf("%w: chunk %d: temp file: %v", entities.ErrNormalizationFailed, chunk.Index, err)
	}
	if _, err := f.Write(wav); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("%w: chunk %d: temp write: %v", entities.ErrNormalizationFailed, chunk.Index, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("%w: chunk %d: temp close: %v", entities.ErrNormalizationFailed, chunk.Index, err)
	}

	chunk.TempPath = f.Name()
	chunk.Audio = nil

	if n.logger != nil {
		n.logger.Debug("normalized chunk",
			zap.Int("chunk_index", chunk.Index),
			zap.Int("wav_bytes", len(wav)),
			zap.String("temp_path", chunk.TempPath),
		)
	}
	return wav, nil
}
