package extract

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimited is returned (wrapped in a PageError) when every attempt
	// at a page was answered with 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrHTTPStatus is returned (wrapped in a PageError) for non-2xx responses
	// other than 429.
	ErrHTTPStatus = errors.New("unexpected http status")
)

// ConfigError is returned before any request is made when the Request is invalid.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

func configError(field, reason string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(reason, args...)}
}

// PageError describes a page that could not be fetched. Extract only returns
// it for the first page, failures of later pages end up in Result.Warnings.
type PageError struct {
	Page int
	URL  string
	// StatusCode is 0 if no response was received.
	StatusCode  int
	Elapsed     time.Duration
	RetryCount  int
	RateLimited bool
	Err         error
}

func (e *PageError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("page %d (status %d, %s): %s", e.Page, e.StatusCode, e.Elapsed.Round(time.Millisecond), e.Err)
	}
	return fmt.Sprintf("page %d (%s): %s", e.Page, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}
