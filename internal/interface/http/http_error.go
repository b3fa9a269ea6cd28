package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
)

// HTTPError is the error envelope an admin endpoint answers with.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// statusByCode maps domain error codes to the status the API answers with.
// Codes missing here fall back to 500 under the endpoint's own code.
var statusByCode = map[string]int{
	apperrors.CodeInvalidInput:       http.StatusBadRequest,
	apperrors.CodeInvalidToken:       http.StatusUnauthorized,
	apperrors.CodeNotFound:           http.StatusNotFound,
	apperrors.CodeRunInProgress:      http.StatusConflict,
	apperrors.CodeInventoryExhausted: http.StatusUnprocessableEntity,
	apperrors.CodeForecastInvalid:    http.StatusUnprocessableEntity,
	apperrors.CodeUpstream:           http.StatusBadGateway,
}

// responseCode renames domain codes whose wire name differs.
var responseCode = map[string]string{
	apperrors.CodeInvalidInput: "invalid_request",
}

func asHTTPError(err error) *HTTPError {
	return classify(err, "internal_error")
}

// classify turns any error into an HTTPError. Explicit HTTPErrors pass
// through, domain errors take their mapped status, and everything else
// becomes a 500 under fallback.
func classify(err error, fallback string) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	code := apperrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		return NewHTTPError(http.StatusInternalServerError, fallback, errMessage(err), err)
	}
	if renamed, ok := responseCode[code]; ok {
		code = renamed
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// abortWithDomainError aborts with the mapped status of a service error.
func abortWithDomainError(c *gin.Context, err error, fallback string) {
	abortWithError(c, classify(err, fallback))
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
