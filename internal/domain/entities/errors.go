package entities

import "errors"

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionEnded    = errors.New("session already ended")
)

// Chunk pipeline errors. Per-chunk failures are contained to the chunk and
// never abort the session.
var (
	ErrNormalizationFailed = errors.New("audio normalization failed")
	ErrEmptyChunk          = errors.New("chunk contains no audio data")
)

// Insight errors
var (
	ErrExtractionFailed = errors.New("insight extraction failed")
)
