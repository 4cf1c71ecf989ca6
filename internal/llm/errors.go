package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyReply is wrapped by ErrInvalidResponse when the model answers
	// a tutor turn with nothing but whitespace.
	ErrEmptyReply = errors.New("model returned an empty reply")

	// ErrRefused is wrapped by ErrInvalidResponse when the model declines
	// to answer, usually because of a safety filter.
	ErrRefused = errors.New("model refused to answer")
)

// ErrRateLimit reports an HTTP 429 from the provider. RetryAfter is zero
// when the provider did not say how long to wait.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("coach model rate limited, retry after %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("coach model rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse carries a reply the coach cannot use: feedback that
// fails the schema, an empty tutor message or a refusal.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("unusable coach reply: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers transport failures and 5xx answers.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "coach model unavailable"
	}
	return fmt.Sprintf("coach model unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded is returned when a structured reply was cut off by
// the token limit. Truncated tutor replies are delivered as they are.
type ErrMaxTokensExceeded struct {
	Limit   int
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("coach reply truncated at %d tokens", e.Limit)
	}
	return "coach reply truncated: max tokens exceeded"
}

// IsModelError reports whether err came from the model side rather than
// from FluentPath itself. Callers map these to a bad-gateway style failure.
func IsModelError(err error) bool {
	var (
		rateLimit   *ErrRateLimit
		unavailable *ErrProviderUnavailable
		invalid     *ErrInvalidResponse
		truncated   *ErrMaxTokensExceeded
	)
	return errors.As(err, &rateLimit) ||
		errors.As(err, &unavailable) ||
		errors.As(err, &invalid) ||
		errors.As(err, &truncated)
}
