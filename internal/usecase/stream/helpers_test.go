package stream

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/pkg/ai"
	"github.com/johnquangdev/meeting-scribe/pkg/config"
)

// recordingSink captures published events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(ctx context.Context, sessionID uuid.UUID, event string, payload interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, Event{SessionID: sessionID, Event: event, Payload: payload})
	return nil
}

func (s *recordingSink) byEvent(event string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// fakeProvider returns canned results and can fail specific uploads.
type fakeProvider struct {
	mu        sync.Mutex
	uploads   int
	failEvery map[int]error
	results   map[string]*ai.SpeechResult
	defResult *ai.SpeechResult
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		failEvery: map[int]error{},
		results:   map[string]*ai.SpeechResult{},
	}
}

func (p *fakeProvider) Upload(ctx context.Context, r io.Reader) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.uploads
	p.uploads++
	if err, ok := p.failEvery[n]; ok {
		return "", err
	}
	return fmt.Sprintf("mem://upload/%d", n), nil
}

func (p *fakeProvider) Transcribe(ctx context.Context, audioURL string, opts ai.SpeechOptions) (*ai.SpeechResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if res, ok := p.results[audioURL]; ok {
		return res, nil
	}
	if p.defResult != nil {
		return p.defResult, nil
	}
	return &ai.SpeechResult{Text: "hello world", Duration: 5, Confidence: 0.9}, nil
}

func (p *fakeProvider) Diarize(ctx context.Context, audioURL string, opts ai.SpeechOptions) (*ai.SpeechResult, error) {
	return p.Transcribe(ctx, audioURL, opts)
}

func testPipelineConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		ChunkWindow:     35 * time.Second,
		WorkerCount:     2,
		MinExtractChars: 200,
		SessionTTL:      4 * time.Hour,
		SweepInterval:   2 * time.Minute,
		ChunkGrace:      5 * time.Minute,
		SampleRate:      16000,
	}
}

func newSessionState(meetingID uuid.UUID) *sessionState {
	session := entities.NewLiveSession("conn-test", meetingID, "test meeting")
	transcript := entities.NewTranscript(meetingID, session.ID)
	return &sessionState{
		session:    session,
		transcript: transcript,
		speakers:   make(map[string]*entities.Speaker),
	}
}

func utterance(speaker, text string, start, end float64) ai.Utterance {
	return ai.Utterance{
		Speaker:    speaker,
		Text:       text,
		Start:      start,
		End:        end,
		Confidence: 0.9,
	}
}
