package errors

import "errors"

// Error codes shared across domain services and the HTTP layer. Handlers
// map these onto status codes, so new codes need a matching entry there.
const (
	CodeInvalidInput       = "invalid_input"
	CodeNotFound           = "not_found"
	CodeFileTooLarge       = "file_too_large"
	CodeEmptyInput         = "empty_input"
	CodeNotReady           = "not_ready"
	CodeStorageError       = "storage_error"
	CodeTranscriptionError = "transcription_error"
	CodeProviderTransient  = "provider_transient"
	CodeProviderFatal      = "provider_fatal"
	CodeChunkFailed        = "chunk_failed"
	CodeReduceFailed       = "reduce_failed"
	CodeInternal           = "internal_error"
)

// AppError encodes domain specific error details.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode helps handler differentiate failures.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf extracts the code from the first AppError in the chain, or
// CodeInternal when the error carries no code.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
