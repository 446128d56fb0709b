package capture

// StateResponse reports the engine state and elapsed duration
type StateResponse struct {
	State           string `json:"state"`
	DurationSeconds int    `json:"duration_seconds"`
}
