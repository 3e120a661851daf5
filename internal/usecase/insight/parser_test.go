package insight

import (
	"testing"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
)

func TestParseActionItems_PlainJSON(t *testing.T) {
	p := NewParser()
	meetingID := uuid.New()

	raw := `{"action_items":[
		{"title":"Send the quarterly report","assigned_to":"Maria","priority":"high","confidence":0.85,"due_date_mentioned":"next Friday","source_quote":"Maria will send the report by Friday"},
		{"title":"","priority":"low"},
		{"title":"Book the offsite venue","priority":"supercritical","confidence":0.6}
	]}`

	drafts, err := p.ParseActionItems(meetingID, raw, 2)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts (empty title skipped), got %d", len(drafts))
	}

	first := drafts[0]
	if first.Title != "Send the quarterly report" {
		t.Fatalf("title = %q", first.Title)
	}
	if first.Assignee != "Maria" || first.Priority != entities.ActionItemPriorityHigh {
		t.Fatalf("fields not carried over: %+v", first)
	}
	if first.SourceChunk != 2 {
		t.Fatalf("source chunk = %d", first.SourceChunk)
	}
	if first.MeetingID != meetingID {
		t.Fatal("meeting id not set")
	}

	// Unknown priority falls back to the default
	if drafts[1].Priority != entities.ActionItemPriorityMedium {
		t.Fatalf("invalid priority should default to medium, got %q", drafts[1].Priority)
	}
}

func TestParseActionItems_MarkdownFence(t *testing.T) {
	p := NewParser()

	raw := "```json\n{\"action_items\":[{\"title\":\"Follow up with legal\",\"confidence\":0.7}]}\n```"
	drafts, err := p.ParseActionItems(uuid.New(), raw, 0)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Title != "Follow up with legal" {
		t.Fatalf("fenced JSON not extracted: %+v", drafts)
	}
}

func TestParseActionItems_MalformedJSON(t *testing.T) {
	p := NewParser()
	if _, err := p.ParseActionItems(uuid.New(), "the model rambled instead of emitting JSON", 0); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestParseAnalysis_RequiresExecutiveSummary(t *testing.T) {
	p := NewParser()
	if _, err := p.ParseAnalysis(`{"key_points":["a"]}`); err == nil {
		t.Fatal("expected error for missing executive_summary")
	}
}

func TestParseAnalysis_NormalizesEmptyCollections(t *testing.T) {
	p := NewParser()

	result, err := p.ParseAnalysis(`{"executive_summary":"Team agreed on the Q3 roadmap."}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.KeyPoints == nil || result.Decisions == nil || result.Topics == nil ||
		result.OpenQuestions == nil || result.ActionItems == nil || result.SpeakerSentiment == nil {
		t.Fatal("collections should be initialized, not nil")
	}
}

func TestDraftsFromAnalysis_MarksFinalPass(t *testing.T) {
	p := NewParser()
	result := &entities.AnalysisResult{
		ExecutiveSummary: "s",
		ActionItems: []entities.ActionItemExtracted{
			{Title: "Schedule follow-up", Confidence: 0.9},
		},
	}

	drafts := p.DraftsFromAnalysis(uuid.New(), result)
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	if drafts[0].SourceChunk != -1 {
		t.Fatalf("final-pass drafts should have source chunk -1, got %d", drafts[0].SourceChunk)
	}
}

func TestValidateTranscriptLength(t *testing.T) {
	p := NewParser()

	long := ""
	for i := 0; i < 30; i++ {
		long += "meaningful discussion follows here "
	}

	if err := p.ValidateTranscriptLength(long, 300); err != nil {
		t.Fatalf("substantial transcript rejected: %v", err)
	}
	if err := p.ValidateTranscriptLength("too short", 300); err == nil {
		t.Fatal("expected rejection for short text")
	}
	if err := p.ValidateTranscriptLength(long, 30); err == nil {
		t.Fatal("expected rejection for short duration")
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := extractJSON(tc.in); got != tc.want {
			t.Fatalf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
