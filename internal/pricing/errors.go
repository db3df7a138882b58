package pricing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why a price query produced no quote.
type ErrorKind string

const (
	// KindNoOffersFound is a valid query with an empty result. Skip this tick.
	KindNoOffersFound ErrorKind = "NO_OFFERS_FOUND"
	// KindUpstreamUnavailable covers network failures, timeouts and 5xx.
	// The alert is retried at the next tick.
	KindUpstreamUnavailable ErrorKind = "UPSTREAM_UNAVAILABLE"
	// KindInvalidRequest means the provider rejected the query itself.
	// The alert is flagged for review but left active.
	KindInvalidRequest ErrorKind = "INVALID_REQUEST"
)

var (
	ErrNoOffersFound       = errors.New("no offers found")
	ErrUpstreamUnavailable = errors.New("pricing upstream unavailable")
	ErrInvalidRequest      = errors.New("invalid pricing request")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNoOffersFound:
		return ErrNoOffersFound
	case KindUpstreamUnavailable:
		return ErrUpstreamUnavailable
	case KindInvalidRequest:
		return ErrInvalidRequest
	}
	return nil
}

// ProviderError is the typed failure of a price query. It matches the kind
// sentinels with errors.Is.
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "pricing error", strings.ToLower(string(e.Kind)))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *ProviderError) Is(target error) bool {
	if e == nil {
		return false
	}
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of a pricing failure, or "" when err is not one.
func KindOf(err error) ErrorKind {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Kind
	}
	for _, k := range []ErrorKind{KindNoOffersFound, KindUpstreamUnavailable, KindInvalidRequest} {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return ""
}

func noOffers(msg string) *ProviderError {
	return &ProviderError{Kind: KindNoOffersFound, Message: msg}
}

func unavailable(status int, msg string, cause error) *ProviderError {
	return &ProviderError{Kind: KindUpstreamUnavailable, StatusCode: status, Message: msg, Cause: cause}
}

func invalidRequest(status int, msg string) *ProviderError {
	return &ProviderError{Kind: KindInvalidRequest, StatusCode: status, Message: msg}
}
