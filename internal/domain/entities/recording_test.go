package entities

import (
	"testing"

	"github.com/google/uuid"
)

func TestRetryStatus_AudioStillHeld(t *testing.T) {
	r := &Recording{
		ID:        uuid.New(),
		Status:    RecordingStatusError,
		AudioData: []byte{0x01, 0x02},
	}
	if got := r.RetryStatus(); got != RecordingStatusSaved {
		t.Fatalf("expected saved, got %s", got)
	}
}

func TestRetryStatus_AlreadyUploaded(t *testing.T) {
	url := "https://storage.example.com/rec.wav"
	r := &Recording{
		ID:       uuid.New(),
		Status:   RecordingStatusError,
		AudioURL: &url,
	}
	if got := r.RetryStatus(); got != RecordingStatusUploaded {
		t.Fatalf("expected uploaded, got %s", got)
	}
}

func TestInterrupted(t *testing.T) {
	// any non-terminal status found at load means a previous run died
	// mid-pipeline, whether before, during, or after the upload
	cases := map[RecordingStatus]bool{
		RecordingStatusSaved:      true,
		RecordingStatusUploading:  true,
		RecordingStatusUploaded:   true,
		RecordingStatusProcessing: true,
		RecordingStatusCompleted:  false,
		RecordingStatusError:      false,
	}
	for status, want := range cases {
		r := &Recording{Status: status}
		if got := r.Interrupted(); got != want {
			t.Fatalf("status %s: expected interrupted=%v, got %v", status, want, got)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	r := &Recording{Status: RecordingStatusProcessing}
	if r.IsTerminal() {
		t.Fatal("processing must not be terminal")
	}
	r.Status = RecordingStatusCompleted
	if !r.IsTerminal() {
		t.Fatal("completed must be terminal")
	}
}
