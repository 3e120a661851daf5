package ai

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
)

func TestNormalizeTranscript_ConvertsMillisecondsToSeconds(t *testing.T) {
	text := "hello world"
	speaker := "A"
	uttText := "hello world"
	confidence := 0.93
	duration := 4.5
	start := int64(1500)
	end := int64(4200)

	transcript := &aai.Transcript{
		Text:          &text,
		Confidence:    &confidence,
		AudioDuration: &duration,
		LanguageCode:  "en",
		Utterances: []aai.TranscriptUtterance{
			{
				Speaker:    &speaker,
				Text:       &uttText,
				Start:      &start,
				End:        &end,
				Confidence: &confidence,
			},
		},
	}

	result := normalizeTranscript(transcript)
	if result.Text != "hello world" {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if result.Language != "en" {
		t.Fatalf("unexpected language %q", result.Language)
	}
	if result.Duration != 4.5 {
		t.Fatalf("unexpected duration %f", result.Duration)
	}
	if len(result.Utterances) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(result.Utterances))
	}
	u := result.Utterances[0]
	if u.Speaker != "A" {
		t.Fatalf("unexpected speaker %q", u.Speaker)
	}
	if u.Start != 1.5 || u.End != 4.2 {
		t.Fatalf("times not converted to seconds: start=%f end=%f", u.Start, u.End)
	}
}

func TestNormalizeTranscript_HandlesNilFields(t *testing.T) {
	result := normalizeTranscript(&aai.Transcript{})
	if result.Text != "" || result.Duration != 0 || len(result.Utterances) != 0 {
		t.Fatalf("empty transcript should normalize to zero values: %+v", result)
	}
}

func TestNormalizeWord(t *testing.T) {
	text := "hi"
	speaker := "B"
	confidence := 0.8
	start := int64(250)
	end := int64(750)

	word := normalizeWord(aai.TranscriptWord{
		Text:       &text,
		Speaker:    &speaker,
		Confidence: &confidence,
		Start:      &start,
		End:        &end,
	})
	if word.Text != "hi" || word.Speaker != "B" {
		t.Fatalf("unexpected word %+v", word)
	}
	if word.Start != 0.25 || word.End != 0.75 {
		t.Fatalf("times not converted: %+v", word)
	}
}

func TestVerifyHMAC(t *testing.T) {
	secret := "webhook-secret"
	payload := []byte(`{"transcript_id":"abc","status":"completed"}`)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	if !VerifyHMAC(secret, payload, signature) {
		t.Fatal("valid signature should verify")
	}
	if VerifyHMAC(secret, payload, "deadbeef") {
		t.Fatal("wrong signature should fail")
	}
	if VerifyHMAC("", payload, signature) {
		t.Fatal("empty secret should fail")
	}
	if VerifyHMAC(secret, []byte("tampered"), signature) {
		t.Fatal("tampered payload should fail")
	}
}
