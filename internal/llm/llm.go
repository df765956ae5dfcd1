package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Request is one synchronous completion request. Constraints are
// optional; zero values defer to provider defaults.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Client is the single capability every provider adapter implements.
// Calls are stateless, time-bounded and cancellable through ctx; no
// adapter retries internally; retry policy belongs to the caller.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// ErrorKind classifies a failed completion call. Timeout and
// rate-limited failures are retryable by the caller with backoff; the
// others surface as-is.
type ErrorKind string

const (
	ErrTimeout         ErrorKind = "timeout"
	ErrRateLimited     ErrorKind = "rate-limited"
	ErrProvider        ErrorKind = "provider-error"
	ErrInvalidResponse ErrorKind = "invalid-response"
)

// Error is the typed failure returned by every adapter.
type Error struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the caller may retry with backoff.
func (e *Error) Retryable() bool {
	return e.Kind == ErrTimeout || e.Kind == ErrRateLimited
}

func newError(provider string, kind ErrorKind, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Err: err}
}

// classifyTransport maps transport-level failures onto the error
// taxonomy. Context cancellation and deadline expiry count as timeouts.
func classifyTransport(provider string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newError(provider, ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(provider, ErrTimeout, err)
	}
	return newError(provider, ErrProvider, err)
}

// classifyStatus maps HTTP status codes onto the error taxonomy.
func classifyStatus(provider string, status int, body string) *Error {
	switch {
	case status == 429:
		return newError(provider, ErrRateLimited, fmt.Errorf("status %d: %s", status, body))
	case status == 408 || status == 504:
		return newError(provider, ErrTimeout, fmt.Errorf("status %d: %s", status, body))
	default:
		return newError(provider, ErrProvider, fmt.Errorf("status %d: %s", status, body))
	}
}
