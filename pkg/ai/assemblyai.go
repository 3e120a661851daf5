package ai

import (
	"context"
	"fmt"
	"io"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-scribe/pkg/config"
	"github.com/johnquangdev/meeting-scribe/pkg/invoker"
)

// Word is one transcribed word with timing in seconds.
type Word struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker,omitempty"`
}

// Utterance is one continuous speech segment from a single speaker.
type Utterance struct {
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words,omitempty"`
}

// SpeechResult is the gateway-normalized provider output. Text-only
// transcription leaves Utterances empty; a combined call fills both. The
// assembler treats both shapes identically. All times are seconds;
// AssemblyAI reports milliseconds and the conversion happens here, before
// the result leaves this layer.
type SpeechResult struct {
	Text       string      `json:"text"`
	Words      []Word      `json:"words"`
	Utterances []Utterance `json:"utterances,omitempty"`
	Language   string      `json:"language,omitempty"`
	Duration   float64     `json:"duration"`
	Confidence float64     `json:"confidence"`
}

// SpeechOptions control a single gateway call.
type SpeechOptions struct {
	SpeakerLabels bool   // Request diarization as part of the same call
	LanguageCode  string // Empty means provider default
	WebhookURL    string // Optional: provider notifies instead of being polled
}

// SpeechGateway calls AssemblyAI for transcription and diarization through
// the resilient invoker: submit with bounded retry, then poll the transcript
// status until terminal.
type SpeechGateway struct {
	client *aai.Client
	inv    *invoker.Invoker
	cfg    *config.AssemblyAIConfig
	logger *zap.Logger
}

// NewSpeechGateway creates a gateway backed by the official SDK client.
func NewSpeechGateway(cfg *config.AssemblyAIConfig, inv *invoker.Invoker, logger *zap.Logger) *SpeechGateway {
	return &SpeechGateway{
		client: aai.NewClient(cfg.APIKey),
		inv:    inv,
		cfg:    cfg,
		logger: logger,
	}
}

// Upload streams audio bytes to the provider and returns the provider-hosted
// URL to transcribe from.
func (g *SpeechGateway) Upload(ctx context.Context, r io.Reader) (string, error) {
	var uploadURL string
	err := g.inv.Invoke(ctx, "assemblyai.upload", func(ctx context.Context) error {
		url, err := g.client.Upload(ctx, r)
		if err != nil {
			return fmt.Errorf("failed to upload to AssemblyAI: %w", err)
		}
		uploadURL = url
		return nil
	})
	return uploadURL, err
}

// Transcribe submits audio at audioURL, polls until the transcript reaches a
// terminal state, and returns the normalized result. With
// opts.SpeakerLabels=true the same call also carries diarization, which is
// the default deployment strategy; a split deployment calls Transcribe and
// Diarize separately.
func (g *SpeechGateway) Transcribe(ctx context.Context, audioURL string, opts SpeechOptions) (*SpeechResult, error) {
	transcriptID, err := g.Submit(ctx, audioURL, opts)
	if err != nil {
		return nil, err
	}
	return g.AwaitResult(ctx, transcriptID)
}

// Diarize runs a diarization-only pass: same provider, speaker labels forced
// on. Kept separate so both observed gateway strategies stay configurable.
func (g *SpeechGateway) Diarize(ctx context.Context, audioURL string, opts SpeechOptions) (*SpeechResult, error) {
	opts.SpeakerLabels = true
	return g.Transcribe(ctx, audioURL, opts)
}

// Submit sends the transcription request and returns the provider ticket.
func (g *SpeechGateway) Submit(ctx context.Context, audioURL string, opts SpeechOptions) (string, error) {
	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(opts.SpeakerLabels),
	}
	lang := opts.LanguageCode
	if lang == "" {
		lang = g.cfg.LanguageCode
	}
	if lang != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(lang)
	}
	if opts.WebhookURL != "" {
		params.WebhookURL = &opts.WebhookURL
	}

	var transcriptID string
	err := g.inv.Invoke(ctx, "assemblyai.submit", func(ctx context.Context) error {
		transcript, err := g.client.Transcripts.SubmitFromURL(ctx, audioURL, params)
		if err != nil {
			return fmt.Errorf("assemblyai submit failed: %w", err)
		}
		if transcript.ID != nil {
			transcriptID = *transcript.ID
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if transcriptID == "" {
		return "", fmt.Errorf("assemblyai returned no transcript id: %w", invoker.ErrRejected)
	}

	if g.logger != nil {
		g.logger.Info("🎙️ Transcription job submitted",
			zap.String("transcript_id", transcriptID),
			zap.Bool("speaker_labels", opts.SpeakerLabels),
		)
	}
	return transcriptID, nil
}

// AwaitResult polls the transcript until completed or errored. A webhook
// arriving first short-circuits this via Fetch; polling is the fallback for
// missed webhooks.
func (g *SpeechGateway) AwaitResult(ctx context.Context, transcriptID string) (*SpeechResult, error) {
	var result *SpeechResult
	err := g.inv.Poll(ctx, "assemblyai.poll", func(ctx context.Context) (bool, error) {
		transcript, err := g.client.Transcripts.Get(ctx, transcriptID)
		if err != nil {
			// Transient API error: keep polling
			return false, fmt.Errorf("assemblyai poll failed: %w: %v", invoker.ErrUnavailable, err)
		}

		switch transcript.Status {
		case aai.TranscriptStatusCompleted:
			result = normalizeTranscript(&transcript)
			return true, nil
		case aai.TranscriptStatusError:
			msg := "transcription failed"
			if transcript.Error != nil {
				msg = *transcript.Error
			}
			return true, fmt.Errorf("assemblyai error: %s: %w", msg, invoker.ErrRejected)
		default:
			return false, nil
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Fetch retrieves a transcript by id without polling. Used by the webhook
// path once the provider reports completion.
func (g *SpeechGateway) Fetch(ctx context.Context, transcriptID string) (*SpeechResult, error) {
	transcript, err := g.client.Transcripts.Get(ctx, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript: %w", err)
	}
	if transcript.Status != aai.TranscriptStatusCompleted {
		return nil, fmt.Errorf("transcript %s not completed (status %s): %w",
			transcriptID, transcript.Status, invoker.ErrUnavailable)
	}
	return normalizeTranscript(&transcript), nil
}

// normalizeTranscript converts the SDK response to the gateway shape,
// millisecond times becoming seconds.
func normalizeTranscript(t *aai.Transcript) *SpeechResult {
	result := &SpeechResult{}

	if t.Text != nil {
		result.Text = *t.Text
	}
	if t.LanguageCode != "" {
		result.Language = string(t.LanguageCode)
	}
	if t.Confidence != nil {
		result.Confidence = *t.Confidence
	}
	if t.AudioDuration != nil {
		result.Duration = *t.AudioDuration
	}

	for _, w := range t.Words {
		result.Words = append(result.Words, normalizeWord(w))
	}

	for _, utt := range t.Utterances {
		u := Utterance{}
		if utt.Text != nil {
			u.Text = *utt.Text
		}
		if utt.Speaker != nil {
			u.Speaker = *utt.Speaker
		}
		if utt.Start != nil {
			u.Start = float64(*utt.Start) / 1000.0 // ms to seconds
		}
		if utt.End != nil {
			u.End = float64(*utt.End) / 1000.0
		}
		if utt.Confidence != nil {
			u.Confidence = *utt.Confidence
		}
		for _, w := range utt.Words {
			u.Words = append(u.Words, normalizeWord(w))
		}
		result.Utterances = append(result.Utterances, u)
	}

	return result
}

func normalizeWord(w aai.TranscriptWord) Word {
	word := Word{}
	if w.Text != nil {
		word.Text = *w.Text
	}
	if w.Start != nil {
		word.Start = float64(*w.Start) / 1000.0 // ms to seconds
	}
	if w.End != nil {
		word.End = float64(*w.End) / 1000.0
	}
	if w.Confidence != nil {
		word.Confidence = *w.Confidence
	}
	if w.Speaker != nil {
		word.Speaker = *w.Speaker
	}
	return word
}
