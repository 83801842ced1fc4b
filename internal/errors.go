package internal

import "errors"

// Sentinel errors for ledger and aggregator failures. Callers match with
// errors.Is; wrapped messages carry the detail.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrActiveSessionExists = errors.New("active session already exists")
	ErrNoActiveSession     = errors.New("no active session")
	ErrDuplicateAnnotation = errors.New("annotation already attached")
	ErrNotFound            = errors.New("not found")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

// AppError is the error payload carried inside the API response envelope.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func NewAppError(code int, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}
