package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the core's error taxonomy. Per-request conditions
// are returned as values, never thrown across the core boundary.
var (
	// ErrNotFound signals an absent compound or interaction record.
	// A normal negative result, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfiguration signals a malformed rule set or config.
	// Fatal at load time; scoring never starts until resolved.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// AmbiguousError is returned when a name resolves to multiple
// equally-ranked compounds. Candidates lets the caller prompt for
// disambiguation.
type AmbiguousError struct {
	Query      string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous compound reference %q: %d candidates", e.Query, len(e.Candidates))
}

// TooManyCompoundsError rejects an oversized stack request outright
// rather than truncating it.
type TooManyCompoundsError struct {
	Count int
	Max   int
}

func (e *TooManyCompoundsError) Error() string {
	return fmt.Sprintf("stack of %d compounds exceeds the maximum of %d", e.Count, e.Max)
}

// Error codes for the HTTP boundary.
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAmbiguous        = "AMBIGUOUS"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeTooManyCompounds = "TOO_MANY_COMPOUNDS"
	ErrCodeInternal         = "INTERNAL_SERVER_ERROR"
)

// APIError is the structured error payload returned by the API layer.
type APIError struct {
	Code          string    `json:"code"`
	Message       string    `json:"message"`
	Candidates    []string  `json:"candidates,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAPIError creates an APIError stamped with the current time.
func NewAPIError(code, message, correlationID string) *APIError {
	return &APIError{
		Code:          code,
		Message:       message,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
	}
}
