package audio

import (
	"encoding/binary"
	"testing"
)

func TestEncodeWAV_Header(t *testing.T) {
	pcm := make([]byte, 320)
	wav := EncodeWAV(pcm, 16000)

	if string(wav[:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != 16000 {
		t.Fatalf("sample rate: expected 16000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != 320 {
		t.Fatalf("data length: expected 320, got %d", got)
	}
	if len(wav) != 44+320 {
		t.Fatalf("total length: expected %d, got %d", 44+320, len(wav))
	}
}

func TestRMS(t *testing.T) {
	silence := make([]byte, 64)
	if got := RMS(silence); got != 0 {
		t.Fatalf("silence should be 0, got %f", got)
	}

	// full-scale square wave -> RMS close to 1
	loud := make([]byte, 64)
	for i := 0; i < len(loud); i += 2 {
		binary.LittleEndian.PutUint16(loud[i:i+2], uint16(int16(32767)))
	}
	if got := RMS(loud); got < 0.99 {
		t.Fatalf("full-scale RMS should be near 1, got %f", got)
	}

	if got := RMS(nil); got != 0 {
		t.Fatalf("empty frame should be 0, got %f", got)
	}
}
