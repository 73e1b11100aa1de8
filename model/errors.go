package model

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("not signed in")
)

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("credential store: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

type FailureCause int

const (
	CauseNetwork FailureCause = iota + 1
	CauseHTTP
	CauseDecode
)

func (c FailureCause) String() string {
	switch c {
	case CauseNetwork:
		return "network"
	case CauseHTTP:
		return "http"
	case CauseDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// RequestFailure is returned for every failure to obtain or parse an image list.
// StatusCode is only set for CauseHTTP.
type RequestFailure struct {
	Cause      FailureCause
	StatusCode int
	Err        error
}

func (e *RequestFailure) Error() string {
	if e.Cause == CauseHTTP {
		return fmt.Sprintf("request failed: HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Err != nil {
		return fmt.Sprintf("request failed (%s): %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("request failed (%s)", e.Cause)
}

func (e *RequestFailure) Unwrap() error {
	return e.Err
}

// NeedsReauth reports whether the provider rejected the stored credential.
func (e *RequestFailure) NeedsReauth() bool {
	return e.Cause == CauseHTTP &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// IsReauth reports whether err means the user has to sign in again.
func IsReauth(err error) bool {
	if errors.Is(err, ErrUnauthenticated) {
		return true
	}
	var failure *RequestFailure
	return errors.As(err, &failure) && failure.NeedsReauth()
}
