package errors

import (
	"fmt"
	"net/http"
)

// AppError is the application error type carried across layer boundaries.
type AppError struct {
	Raw      error
	HTTPCode int
	Code     ErrorCode
	Message  string
	Details  map[string]string
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

// Capture Errors

// ErrDeviceUnavailable is fatal to the current capture attempt: the input
// device could not be acquired (permission denied or no device present).
// Not retryable without the operator re-granting access.
func ErrDeviceUnavailable(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_DEVICE_UNAVAILABLE,
		Message:  "Audio input device unavailable",
	}
}

func ErrInvalidCaptureState(action, state string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_INVALID_CAPTURE_STATE,
		Message:  fmt.Sprintf("Cannot %s while %s", action, state),
	}
}

// Pipeline Errors

// ErrUploadFailed is recorded on the recording entity and retryable.
func ErrUploadFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_UPLOAD_FAILED,
		Message:  "Audio upload failed",
	}
}

// ErrAnalysisFailed is recorded on the recording entity and retryable.
func ErrAnalysisFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_ANALYSIS_FAILED,
		Message:  "Recording analysis failed",
	}
}

// ErrPersistenceFailure breaks the local durability invariant and must be
// surfaced to the caller as a blocking error, never swallowed.
func ErrPersistenceFailure(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_PERSISTENCE_FAILURE,
		Message:  "Local store write failed",
	}
}

func ErrRecordingNotFound(recordingID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  "Recording not found",
	}.WithDetail("recording_id", recordingID)
}

func ErrAlreadyProcessing(recordingID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_ALREADY_PROCESSING,
		Message:  "Recording is already being processed",
	}.WithDetail("recording_id", recordingID)
}

// Integration Errors

func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTEGRATION_STORAGE_FAILED,
		Message:  fmt.Sprintf("Storage operation failed: %s", operation),
	}
}

func ErrRemoteBackendFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_INTEGRATION_REMOTE_FAILED,
		Message:  fmt.Sprintf("Remote backend call failed: %s", operation),
	}
}
