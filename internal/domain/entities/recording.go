package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RecordingStatus represents the pipeline status of a captured recording
type RecordingStatus string

const (
	// RecordingStatusSaved means captured and durably persisted locally,
	// not yet confirmed uploaded.
	RecordingStatusSaved RecordingStatus = "saved"
	// RecordingStatusUploading means an upload attempt has started.
	RecordingStatusUploading RecordingStatus = "uploading"
	// RecordingStatusUploaded means the audio has a durable remote URL.
	RecordingStatusUploaded RecordingStatus = "uploaded"
	// RecordingStatusProcessing means analysis has been requested.
	RecordingStatusProcessing RecordingStatus = "processing"
	// RecordingStatusCompleted means analysis results are attached.
	RecordingStatusCompleted RecordingStatus = "completed"
	// RecordingStatusError means upload or analysis failed; retryable.
	RecordingStatusError RecordingStatus = "error"
)

// Recording represents one captured table-side audio session and its
// processing state. AudioData is held locally until the upload is confirmed,
// then dropped to save space.
type Recording struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	RestaurantID string          `json:"restaurant_id" gorm:"type:varchar(64);not null;index"`
	TableID      string          `json:"table_id" gorm:"type:varchar(32);not null"`
	Timestamp    time.Time       `json:"timestamp" gorm:"not null;index"`
	Duration     int             `json:"duration"`
	AudioData    []byte          `json:"-" gorm:"type:blob"`
	AudioURL     *string         `json:"audio_url,omitempty" gorm:"type:text"`
	Status       RecordingStatus `json:"status" gorm:"type:varchar(20);not null;default:'saved';index"`
	ErrorMessage *string         `json:"error_message,omitempty" gorm:"type:text"`

	// Analysis results, populated only when Status is completed.
	Summary   *string        `json:"summary,omitempty" gorm:"type:text"`
	Sentiment *float64       `json:"sentiment,omitempty"`
	Keywords  datatypes.JSON `json:"keywords,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Recording) TableName() string {
	return "recordings"
}

// IsCompleted checks if the recording finished the whole pipeline
func (r *Recording) IsCompleted() bool {
	return r.Status == RecordingStatusCompleted
}

// IsTerminal reports whether the recording needs no further pipeline work.
func (r *Recording) IsTerminal() bool {
	return r.Status == RecordingStatusCompleted || r.Status == RecordingStatusError
}

// NeedsUpload reports whether the raw audio still has to leave the device.
func (r *Recording) NeedsUpload() bool {
	return r.AudioURL == nil || *r.AudioURL == ""
}

// Interrupted reports whether a previous run left this recording
// mid-pipeline: any non-terminal status found at load means the process
// that owned it never finished.
func (r *Recording) Interrupted() bool {
	return !r.IsTerminal()
}

// RetryStatus returns the status a failed recording is reset to on explicit
// retry: back to saved when the raw audio is still held, or straight to
// uploaded when a durable URL already exists.
func (r *Recording) RetryStatus() RecordingStatus {
	if r.NeedsUpload() {
		return RecordingStatusSaved
	}
	return RecordingStatusUploaded
}
