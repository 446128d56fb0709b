package errors

// ErrorCode identifies error categories in API responses and logs.
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1003
	ErrorCode_UNAUTHENTICATED  ErrorCode = 1004

	ErrorCode_DEVICE_UNAVAILABLE    ErrorCode = 2000
	ErrorCode_INVALID_CAPTURE_STATE ErrorCode = 2001

	ErrorCode_UPLOAD_FAILED       ErrorCode = 3000
	ErrorCode_ANALYSIS_FAILED     ErrorCode = 3001
	ErrorCode_PERSISTENCE_FAILURE ErrorCode = 3002
	ErrorCode_ALREADY_PROCESSING  ErrorCode = 3003

	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 4000
	ErrorCode_INTEGRATION_REMOTE_FAILED  ErrorCode = 4001
)

var codeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                    "OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_UNAUTHENTICATED:            "UNAUTHENTICATED",
	ErrorCode_DEVICE_UNAVAILABLE:         "DEVICE_UNAVAILABLE",
	ErrorCode_INVALID_CAPTURE_STATE:      "INVALID_CAPTURE_STATE",
	ErrorCode_UPLOAD_FAILED:              "UPLOAD_FAILED",
	ErrorCode_ANALYSIS_FAILED:            "ANALYSIS_FAILED",
	ErrorCode_PERSISTENCE_FAILURE:        "PERSISTENCE_FAILURE",
	ErrorCode_ALREADY_PROCESSING:         "ALREADY_PROCESSING",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_REMOTE_FAILED:  "INTEGRATION_REMOTE_FAILED",
}

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
