package httpUtils

import (
	"fmt"
	"net/http"
)

type HttpError struct {
	StatusCode int
	Status     string
}

func (e *HttpError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("unexpected HTTP status: %s", e.Status)
	}
	return fmt.Sprintf("unexpected HTTP status: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *HttpError) StatusText() string {
	return http.StatusText(e.StatusCode)
}

// DecodeError wraps a response body that could not be unmarshalled.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
