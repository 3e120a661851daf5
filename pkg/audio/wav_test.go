package audio

import (
	"math"
	"testing"
)

func TestWrapPCM_ProducesValidContainer(t *testing.T) {
	pcm := make([]byte, 32000) // one second at 16kHz mono 16-bit
	wav, err := WrapPCM(pcm, 16000)
	if err != nil {
		t.Fatalf("wrap failed: %v", err)
	}
	if len(wav) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(wav))
	}
	if !IsWAV(wav) {
		t.Fatal("wrapped data should carry a RIFF/WAVE header")
	}
	if err := Validate(wav); err != nil {
		t.Fatalf("wrapped data should validate: %v", err)
	}

	dur, err := Duration(wav)
	if err != nil {
		t.Fatalf("duration failed: %v", err)
	}
	if math.Abs(dur-1.0) > 0.001 {
		t.Fatalf("expected ~1s duration, got %f", dur)
	}
}

func TestWrapPCM_RejectsBadInput(t *testing.T) {
	if _, err := WrapPCM(nil, 16000); err == nil {
		t.Fatal("empty PCM should fail")
	}
	if _, err := WrapPCM([]byte{0x01, 0x02, 0x03}, 16000); err == nil {
		t.Fatal("odd-length PCM should fail")
	}
	if _, err := WrapPCM([]byte{0x01, 0x02}, 0); err == nil {
		t.Fatal("zero sample rate should fail")
	}
}

func TestIsWAV(t *testing.T) {
	if IsWAV([]byte("RIFF")) {
		t.Fatal("truncated header should not pass")
	}
	if IsWAV(make([]byte, 64)) {
		t.Fatal("zeroed bytes should not pass")
	}

	wav, err := WrapPCM(make([]byte, 320), 16000)
	if err != nil {
		t.Fatalf("wrap failed: %v", err)
	}
	if !IsWAV(wav) {
		t.Fatal("real container should pass")
	}
}

func TestValidate_RejectsCorruptHeaders(t *testing.T) {
	wav, err := WrapPCM(make([]byte, 320), 16000)
	if err != nil {
		t.Fatalf("wrap failed: %v", err)
	}

	if err := Validate(wav[:20]); err == nil {
		t.Fatal("short data should fail")
	}

	corrupt := make([]byte, len(wav))
	copy(corrupt, wav)
	copy(corrupt[12:16], "junk")
	if err := Validate(corrupt); err == nil {
		t.Fatal("missing fmt chunk should fail")
	}
}

func TestPCMDuration(t *testing.T) {
	if got := PCMDuration(32000, 16000); got != 1.0 {
		t.Fatalf("expected 1s, got %f", got)
	}
	if got := PCMDuration(32000, 0); got != 0 {
		t.Fatalf("invalid rate should yield 0, got %f", got)
	}
}
