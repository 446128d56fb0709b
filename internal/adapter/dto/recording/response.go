package recording

import "time"

// Response represents one recording in API responses. AudioData never
// leaves the agent; only the durable URL is exposed.
type Response struct {
	ID              string    `json:"id"`
	TableID         string    `json:"table_id"`
	Timestamp       time.Time `json:"timestamp"`
	DurationSeconds int       `json:"duration_seconds"`
	Status          string    `json:"status"`
	AudioURL        *string   `json:"audio_url,omitempty"`
	ErrorMessage    *string   `json:"error_message,omitempty"`
	Summary         *string   `json:"summary,omitempty"`
	Sentiment       *float64  `json:"sentiment,omitempty"`
	Keywords        []string  `json:"keywords,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ListResponse wraps the restaurant's recording history
type ListResponse struct {
	Recordings []*Response `json:"recordings"`
	Total      int         `json:"total"`
}
