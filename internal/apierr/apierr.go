package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

type Kind string

const (
	KindConfig   Kind = "config"
	KindNetwork  Kind = "network"
	KindUpstream Kind = "upstream"
)

// Error is a completion failure tagged with the provider that produced it and
// a coarse Kind for logs and metrics. Error() returns the cause's text only, so
// the user-facing message does not change with classification.
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s %s error", e.Provider, e.Kind)
	}
	return string(e.Kind) + " error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, provider string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// Wrap classifies err as a network failure when it came from the transport
// (dial, TLS, timeouts, cancellation) and as an upstream failure otherwise.
// An err that is already an *Error is returned unchanged.
func Wrap(provider string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return err
	}
	return New(Classify(err), provider, err)
}

func Classify(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	return KindUpstream
}

// KindOf returns the Kind of err, or "" when err is nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return Classify(err)
}
