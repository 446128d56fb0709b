package pipeline

import "github.com/google/uuid"

// Stage identifies which pipeline stage an outcome refers to.
type Stage string

const (
	StageUpload   Stage = "upload"
	StageAnalysis Stage = "analysis"
)

// Outcome is the terminal result of one Process invocation. Every invocation
// ends in exactly one of these; pipeline failures are never raised as errors
// past the processor boundary.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// Result is the exhaustively typed terminal outcome of processing one
// recording. When Outcome is OutcomeFailed, Stage names the stage that
// failed and Message carries the operator-facing error text already
// persisted on the entity.
type Result struct {
	RecordingID uuid.UUID
	Outcome     Outcome
	Stage       Stage
	Message     string
}

// Completed reports whether the recording reached the completed status.
func (r Result) Completed() bool {
	return r.Outcome == OutcomeCompleted
}

func completed(id uuid.UUID) Result {
	return Result{RecordingID: id, Outcome: OutcomeCompleted, Stage: StageAnalysis}
}

func failed(id uuid.UUID, stage Stage, message string) Result {
	return Result{RecordingID: id, Outcome: OutcomeFailed, Stage: stage, Message: message}
}
