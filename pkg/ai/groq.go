package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/johnquangdev/meeting-scribe/pkg/config"
	"github.com/johnquangdev/meeting-scribe/pkg/invoker"
)

// GroqClient is a minimal client for Groq API calls used for LLM analysis
type GroqClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	inv     *invoker.Invoker
}

// NewGroqClient creates a Groq client using values from the provided config.
// Pass a nil config to fall back to environment variables.
func NewGroqClient(cfg *config.GroqConfig, inv *invoker.Invoker) *GroqClient {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("GROQ_API_URL")
		if base == "" {
			base = "https://api.groq.com"
		}
	}

	model := "llama-3.1-70b-versatile"
	if cfg != nil && cfg.Model != "" {
		model = cfg.Model
	}

	return &GroqClient{
		apiKey:  apiKey,
		baseURL: base,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
		inv:     inv,
	}
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model       string      `json:"model,omitempty"`
	Messages    interface{} `json:"messages,omitempty"`
	Temperature float64     `json:"temperature,omitempty"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const actionItemSystemPrompt = `You are an assistant that extracts action items from meeting transcript fragments.
Return ONLY a JSON object matching this schema, no prose:
{
  "action_items": [
    {
      "title": "short imperative title",
      "description": "what needs to be done",
      "assigned_to": "name or empty string",
      "priority": "low|medium|high|urgent",
      "confidence": 0.0,
      "due_date_mentioned": "verbatim date phrase or empty string",
      "source_quote": "the sentence that implies the task"
    }
  ]
}
If the fragment contains no commitments or tasks, return {"action_items": []}.
Do not invent tasks. Every item must be traceable to a source_quote in the text.`

const finalAnalysisSystemPrompt = `You are an assistant that produces a structured analysis of a complete meeting transcript.
Return ONLY a JSON object matching this schema, no prose:
{
  "executive_summary": "2-4 sentence summary",
  "key_points": ["..."],
  "decisions": ["..."],
  "topics": ["..."],
  "open_questions": ["..."],
  "action_items": [
    {
      "title": "...", "description": "...", "assigned_to": "...",
      "priority": "low|medium|high|urgent", "confidence": 0.0,
      "due_date_mentioned": "...", "source_quote": "..."
    }
  ],
  "overall_sentiment": 0.0,
  "speaker_sentiment": {"Speaker A": 0.0}
}
Sentiment is a float from -1.0 (negative) to 1.0 (positive).`

// ExtractActionItems sends a transcript fragment to the LLM and returns the
// raw assistant content. Parsing happens in the insight usecase so that a
// malformed response can be logged with the fragment that produced it.
func (g *GroqClient) ExtractActionItems(ctx context.Context, fragment string) (string, error) {
	messages := []map[string]string{
		{"role": "system", "content": actionItemSystemPrompt},
		{"role": "user", "content": fragment},
	}
	return g.chat(ctx, "groq.extract", messages, 0.2, 2000)
}

// GenerateFinalAnalysis sends the full transcript for end-of-meeting analysis.
func (g *GroqClient) GenerateFinalAnalysis(ctx context.Context, transcript string) (string, error) {
	messages := []map[string]string{
		{"role": "system", "content": finalAnalysisSystemPrompt},
		{"role": "user", "content": transcript},
	}
	return g.chat(ctx, "groq.analyze", messages, 0.3, 8000)
}

// chat runs one chat completion through the invoker so rate limits and
// transient upstream failures are retried with backoff.
func (g *GroqClient) chat(ctx context.Context, name string, messages interface{}, temperature float64, maxTokens int) (string, error) {
	reqBody := ChatRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	var content string
	call := func(ctx context.Context) error {
		endpoint := g.baseURL + "/openai/v1/chat/completions"
		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := invoker.ClassifyHTTPStatus(resp.StatusCode); err != nil {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("groq returned status %d: %w", resp.StatusCode, err)
		}

		var cr ChatResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return err
		}
		if len(cr.Choices) == 0 {
			return fmt.Errorf("empty response from groq: %w", invoker.ErrRejected)
		}
		content = cr.Choices[0].Message.Content
		return nil
	}

	if g.inv != nil {
		err = g.inv.Invoke(ctx, name, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}
	return content, nil
}
