package insight

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

// Parser handles parsing and validation of Groq API responses
type Parser struct{}

// NewParser creates a new Parser instance
func NewParser() *Parser {
	return &Parser{}
}

// actionItemEnvelope is the JSON shape the extraction prompt asks for.
type actionItemEnvelope struct {
	ActionItems []entities.ActionItemExtracted `json:"action_items"`
}

// ParseActionItems parses an incremental extraction response into action item
// drafts for the given meeting. chunkIndex records which chunk's text
// triggered the extraction; pass -1 for the final pass.
func (p *Parser) ParseActionItems(meetingID uuid.UUID, jsonString string, chunkIndex int) ([]*entities.ActionItem, error) {
	jsonString = extractJSON(jsonString)

	var envelope actionItemEnvelope
	if err := json.Unmarshal([]byte(jsonString), &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse action items response: %w", err)
	}

	drafts := make([]*entities.ActionItem, 0, len(envelope.ActionItems))
	for _, item := range envelope.ActionItems {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		drafts = append(drafts, draftFromExtracted(meetingID, item, chunkIndex))
	}
	return drafts, nil
}

// ParseAnalysis parses the final analysis response into AnalysisResult
func (p *Parser) ParseAnalysis(jsonString string) (*entities.AnalysisResult, error) {
	jsonString = extractJSON(jsonString)

	var result entities.AnalysisResult
	if err := json.Unmarshal([]byte(jsonString), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if result.ExecutiveSummary == "" {
		return nil, fmt.Errorf("missing executive_summary in response")
	}

	p.normalize(&result)
	return &result, nil
}

// DraftsFromAnalysis converts final-pass action items to ActionItem entities
func (p *Parser) DraftsFromAnalysis(meetingID uuid.UUID, result *entities.AnalysisResult) []*entities.ActionItem {
	if result == nil {
		return nil
	}

	drafts := make([]*entities.ActionItem, 0, len(result.ActionItems))
	for _, item := range result.ActionItems {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		drafts = append(drafts, draftFromExtracted(meetingID, item, -1))
	}
	return drafts
}

// ValidateTranscriptLength checks if a transcript is substantial enough for
// the final analysis pass.
func (p *Parser) ValidateTranscriptLength(transcript string, durationSeconds int) error {
	const (
		minChars    = 100
		minWords    = 20
		minDuration = 60 // 1 minute
	)

	if len(transcript) < minChars {
		return fmt.Errorf("transcript too short: %d characters (minimum: %d)", len(transcript), minChars)
	}

	words := strings.Fields(transcript)
	if len(words) < minWords {
		return fmt.Errorf("transcript too short: %d words (minimum: %d)", len(words), minWords)
	}

	if durationSeconds < minDuration {
		return fmt.Errorf("meeting too short: %d seconds (minimum: %d)", durationSeconds, minDuration)
	}

	return nil
}

// normalize ensures slice and map fields are initialized. KeyPoints,
// Decisions, etc. can legitimately be empty for short meetings.
func (p *Parser) normalize(result *entities.AnalysisResult) {
	if result.KeyPoints == nil {
		result.KeyPoints = make([]string, 0)
	}
	if result.Decisions == nil {
		result.Decisions = make([]string, 0)
	}
	if result.Topics == nil {
		result.Topics = make([]string, 0)
	}
	if result.OpenQuestions == nil {
		result.OpenQuestions = make([]string, 0)
	}
	if result.ActionItems == nil {
		result.ActionItems = make([]entities.ActionItemExtracted, 0)
	}
	if result.SpeakerSentiment == nil {
		result.SpeakerSentiment = make(map[string]float64)
	}
}

func draftFromExtracted(meetingID uuid.UUID, item entities.ActionItemExtracted, chunkIndex int) *entities.ActionItem {
	draft := entities.NewActionItem(meetingID, strings.TrimSpace(item.Title))
	draft.Description = item.Description
	draft.Assignee = item.AssignedTo
	draft.DueDateText = item.DueDateMentioned
	draft.Confidence = item.Confidence
	draft.SourceText = item.SourceQuote
	draft.SourceChunk = chunkIndex

	switch item.Priority {
	case entities.ActionItemPriorityLow,
		entities.ActionItemPriorityMedium,
		entities.ActionItemPriorityHigh,
		entities.ActionItemPriorityUrgent:
		draft.Priority = item.Priority
	}
	return draft
}

// extractJSON extracts JSON content from markdown code blocks or plain text
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	// Check if wrapped in markdown code block
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
