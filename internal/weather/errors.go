package weather

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidRequest is a malformed query or an HTTP 400 from the provider.
	ErrInvalidRequest = errors.New("invalid weather data request")
	// ErrNoDataForLocation is an HTTP 404 from the provider.
	ErrNoDataForLocation = errors.New("no weather data found for the specified location")
	// ErrTransport covers network failures and any other unsuccessful response.
	ErrTransport = errors.New("failed to fetch weather data from provider")
	// ErrConfiguration is a missing or invalid credential.
	ErrConfiguration = errors.New("weather provider is not configured")
)

// ProviderError is the classified failure of a provider call.
type ProviderError struct {
	Kind       error
	Provider   string
	StatusCode int    // 0 when no response was received
	Message    string // provider supplied reason, if any
	Err        error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("provider error")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is the error's kind.
func (e *ProviderError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError is a shorthand for building a ProviderError without a response.
func NewProviderError(kind error, provider string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Provider: provider, Err: err}
}

// KindOf returns the sentinel kind carried by err, or nil.
func KindOf(err error) error {
	for _, kind := range []error{ErrInvalidRequest, ErrNoDataForLocation, ErrTransport, ErrConfiguration} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// KindName returns a short, stable identifier for err's kind.
func KindName(err error) string {
	switch KindOf(err) {
	case ErrInvalidRequest:
		return "invalid_request"
	case ErrNoDataForLocation:
		return "no_data_for_location"
	case ErrTransport:
		return "transport_error"
	case ErrConfiguration:
		return "configuration_error"
	default:
		return "internal_error"
	}
}

// StatusFor maps err to the HTTP status the API reports for it.
func StatusFor(err error) int {
	switch KindOf(err) {
	case ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrNoDataForLocation:
		return http.StatusNotFound
	case ErrTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
