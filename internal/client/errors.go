package client

import (
	"errors"
	"fmt"
)

// Kind classifies API failures by how the caller should react.
type Kind int

const (
	KindUnknown    Kind = iota
	KindValidation      // bad input; fix the request, never retry
	KindAuth            // credential rejected; clear it and re-login
	KindTransient       // transport or server trouble; retry may help
	KindConflict        // state already advanced (e.g. already paid); adopt it
	KindMalformed       // response body not in any understood shape
)

// APIError is a failed call against the backend.
type APIError struct {
	Kind       Kind
	StatusCode int
	Code       string // machine code from the envelope, e.g. DB_CONNECTION_ERROR
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the retry ladder should attempt this failure
// again: transport errors and server errors carrying the database code.
func (e *APIError) Retryable() bool {
	if e.Kind == KindAuth || e.Kind == KindValidation || e.Kind == KindConflict {
		return false
	}
	if e.StatusCode == 0 {
		return true // transport failure, never reached the server
	}
	return e.StatusCode >= 500 && e.Code == "DB_CONNECTION_ERROR"
}

// AsAPIError unwraps err to an *APIError if there is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
