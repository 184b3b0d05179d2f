package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/mitchellalderson/render-note-taker-agent/pkg/errors"
)

// HTTPError carries everything needed to serialize an error response.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// abortWithDomainError converts an AppError from the notes or summarizer
// domain into the transport shape.
func abortWithDomainError(c *gin.Context, err error) {
	status, code := statusForCode(apperrors.CodeOf(err))
	message := ""
	if err != nil {
		message = err.Error()
	}
	abortWithError(c, NewHTTPError(status, code, message, err))
}

// statusForCode maps domain error codes onto HTTP statuses. Provider and
// pipeline failures surface as 502 with the domain code preserved.
func statusForCode(code string) (int, string) {
	switch code {
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest, "invalid_request"
	case apperrors.CodeNotFound:
		return http.StatusNotFound, "not_found"
	case apperrors.CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge, "file_too_large"
	case apperrors.CodeEmptyInput:
		return http.StatusUnprocessableEntity, "empty_input"
	case apperrors.CodeNotReady:
		return http.StatusConflict, "not_ready"
	case apperrors.CodeTranscriptionError,
		apperrors.CodeProviderTransient,
		apperrors.CodeProviderFatal,
		apperrors.CodeChunkFailed,
		apperrors.CodeReduceFailed:
		return http.StatusBadGateway, code
	case apperrors.CodeStorageError:
		return http.StatusInternalServerError, "storage_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "internal error",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
