package server

import "fmt"

// Request error codes returned in the JSON-RPC error data.
const (
	CodeImageTooLarge        = "IMAGE_TOO_LARGE"
	CodeImageTooSmall        = "IMAGE_TOO_SMALL"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeImageDecodeFailed    = "IMAGE_DECODE_FAILED"
	CodeInvalidArgument      = "INVALID_ARGUMENT"
)

// JSON-RPC error codes.
const (
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
	rpcToolFailed     = -32000
)

// RequestError is an input defect detected before extraction starts.
type RequestError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
	// Which names the offending input, e.g. "front" or "back".
	Which string `json:"which,omitempty"`
}

func (e *RequestError) Error() string {
	if e.Which == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s (%s): %s", e.Code, e.Which, e.Message)
}

func requestErrorf(code, which, format string, args ...interface{}) *RequestError {
	return &RequestError{Code: code, Which: which, Message: fmt.Sprintf(format, args...)}
}
