// Package provider wraps external text-completion services behind a uniform
// client interface with a closed error taxonomy. Every adapter reports
// failures as *Error so callers can decide to rotate credentials without
// knowing anything about the underlying SDK.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Client is a text-completion client bound to a single credential.
type Client interface {
	// Name identifies the backing provider, e.g. "gemini".
	Name() string

	// Complete sends a completion request and returns the raw response text.
	// Failures are reported as *Error.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Factory builds a client bound to one credential. The key rotator calls it
// again with the next credential after a rotatable failure.
type Factory func(apiKey string) Client

// Error is the closed error type returned by every provider adapter.
// Rotatable failures (rate limit, auth rejection, transient network) should
// trigger trying the next credential; fatal failures (malformed request)
// should not.
type Error struct {
	Provider  string
	Rotatable bool
	Err       error
}

func (e *Error) Error() string {
	kind := "fatal"
	if e.Rotatable {
		kind = "rotatable"
	}
	return fmt.Sprintf("%s: %s provider error: %v", e.Provider, kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RotatableError wraps err as a rotatable provider failure.
func RotatableError(provider string, err error) *Error {
	return &Error{Provider: provider, Rotatable: true, Err: err}
}

// FatalError wraps err as a non-rotatable provider failure.
func FatalError(provider string, err error) *Error {
	return &Error{Provider: provider, Rotatable: false, Err: err}
}

// IsRotatable reports whether err is a provider failure that warrants trying
// the next credential. Unknown errors are treated as fatal.
func IsRotatable(err error) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Rotatable
	}
	return false
}

// classifyTransport maps transport-level failures shared by all adapters.
// Timeouts and network errors are rotatable; a cancelled request is not worth
// retrying on another credential.
func classifyTransport(provider string, err error) (*Error, bool) {
	if errors.Is(err, context.DeadlineExceeded) {
		return RotatableError(provider, err), true
	}
	if errors.Is(err, context.Canceled) {
		return FatalError(provider, err), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return RotatableError(provider, err), true
	}
	return nil, false
}

// classifyStatus maps an HTTP status code from a provider API to the error
// taxonomy. Rate limits, auth rejections and server-side failures rotate;
// everything else (malformed request and friends) is fatal.
func classifyStatus(provider string, status int, err error) *Error {
	switch {
	case status == 401 || status == 403 || status == 429:
		return RotatableError(provider, err)
	case status >= 500:
		return RotatableError(provider, err)
	default:
		return FatalError(provider, err)
	}
}
