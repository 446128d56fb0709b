package entities

// AnalysisResult represents the structured output of the analysis service
// for one recording: transcription plus LLM-derived feedback fields.
type AnalysisResult struct {
	Transcript string   `json:"transcript"`
	Summary    string   `json:"summary"`
	Sentiment  float64  `json:"sentiment"` // -1.0 (negative) .. 1.0 (positive)
	Keywords   []string `json:"keywords"`
}
