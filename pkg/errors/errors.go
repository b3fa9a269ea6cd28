package errors

import "errors"

// Codes shared across the briefing pipeline.
const (
	CodeConfiguration      = "configuration_error"
	CodeForecastInvalid    = "forecast_invalid"
	CodeInventoryExhausted = "inventory_exhausted"
	CodePersistence        = "persistence_error"
	CodeRunInProgress      = "run_in_progress"
	CodeInvalidInput       = "invalid_input"
	CodeInvalidToken       = "invalid_token"
	CodeUpstream           = "upstream_error"
	CodeNotFound           = "not_found"
)

// AppError carries a machine readable code next to the human message.
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

// IsCode reports whether any AppError in the chain carries code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost AppError, or "" when err is not one.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
