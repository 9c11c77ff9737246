package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/weather-history/internal/logger"
	"github.com/i474232898/weather-history/internal/weather"
	"github.com/sony/gobreaker"
)

// BreakerConfig controls the per-provider circuit breaker.
type BreakerConfig struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// DefaultBreakerConfig matches the settings used for every provider unless overridden.
var DefaultBreakerConfig = BreakerConfig{
	MaxRequests: 5,
	Interval:    1 * time.Minute,
	Timeout:     2 * time.Minute,
}

// variant is what differs between providers; the request flow is shared.
type variant struct {
	name    string
	baseURL string
	policy  weather.DatePolicy
	params  func(q weather.HistoricalQuery) url.Values
}

// Client implements weather.HistoricalSource for a single provider.
type Client struct {
	variant
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	breaker BreakerConfig
	now     func() time.Time
	log     logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithClock sets the clock used to decide "today".
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithBreaker overrides the circuit breaker settings.
func WithBreaker(cfg BreakerConfig) Option {
	return func(c *Client) { c.breaker = cfg }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

func newClient(v variant, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{
		variant: v,
		client:  httpClient,
		breaker: DefaultBreakerConfig,
		now:     time.Now,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("provider", c.name)
	c.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        c.name,
		MaxRequests: c.breaker.MaxRequests,
		Interval:    c.breaker.Interval,
		Timeout:     c.breaker.Timeout,
		IsSuccessful: func(err error) bool {
			var ab abandoned
			return err == nil || errors.As(err, &ab)
		},
	})
	return c
}

func (c *Client) Name() string {
	return c.name
}

// FetchHistory validates and normalizes q, then performs a single GET against the provider.
func (c *Client) FetchHistory(ctx context.Context, q weather.HistoricalQuery) (weather.HistoricalResult, error) {
	if err := weather.ValidateQuery(q); err != nil {
		var pe *weather.ProviderError
		if errors.As(err, &pe) {
			pe.Provider = c.name
		}
		return weather.HistoricalResult{}, err
	}

	eff := weather.NormalizeQuery(q, c.policy, weather.Today(c.now()))

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return weather.HistoricalResult{}, weather.NewProviderError(weather.ErrConfiguration, c.name,
			fmt.Errorf("invalid base url: %w", err))
	}
	u.RawQuery = c.params(eff).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return weather.HistoricalResult{}, weather.NewProviderError(weather.ErrTransport, c.name,
			fmt.Errorf("failed to create request: %w", err))
	}

	c.log.Debugf("requesting history %s..%s", eff.StartDate, eff.EndDate)

	status, body, err := c.do(req)
	if err != nil {
		return weather.HistoricalResult{}, err
	}

	c.log.WithField("status", status).Debugf("received %d bytes", len(body))

	if !json.Valid(body) {
		return weather.HistoricalResult{}, &weather.ProviderError{
			Kind:       weather.ErrTransport,
			Provider:   c.name,
			StatusCode: status,
			Message:    "response body is not valid JSON",
		}
	}

	return weather.HistoricalResult{
		Provider: c.name,
		Query:    eff,
		Payload:  json.RawMessage(body),
	}, nil
}

// abandoned wraps the error of a request whose caller cancelled it or let its
// deadline pass. It says nothing about the provider, so the breaker ignores it.
type abandoned struct{ error }

func (a abandoned) Unwrap() error { return a.error }

// do executes req through the circuit breaker. Only transport failures and 5xx
// responses count against the breaker; 4xx are the caller's fault, and so are
// requests the caller abandoned.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	if err := req.Context().Err(); err != nil {
		return 0, nil, weather.NewProviderError(weather.ErrTransport, c.name, err)
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			perr := weather.NewProviderError(weather.ErrTransport, c.name, redactURL(err))
			if req.Context().Err() != nil {
				return nil, abandoned{perr}
			}
			return nil, perr
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &weather.ProviderError{
				Kind:       weather.ErrTransport,
				Provider:   c.name,
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("failed to read response: %w", err),
			}
		}

		if resp.StatusCode >= 500 {
			return nil, c.classify(resp.StatusCode, body)
		}
		return &response{status: resp.StatusCode, body: body}, nil
	})

	if err != nil {
		var ab abandoned
		if errors.As(err, &ab) {
			return 0, nil, ab.error
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, nil, weather.NewProviderError(weather.ErrTransport, c.name, err)
		}
		return 0, nil, err
	}

	resp, ok := result.(*response)
	if !ok {
		return 0, nil, weather.NewProviderError(weather.ErrTransport, c.name,
			fmt.Errorf("unexpected result type from circuit breaker"))
	}
	if resp.status < 200 || resp.status >= 300 {
		return 0, nil, c.classify(resp.status, resp.body)
	}
	return resp.status, resp.body, nil
}

type response struct {
	status int
	body   []byte
}

func (c *Client) classify(status int, body []byte) error {
	var kind error
	switch status {
	case http.StatusBadRequest:
		kind = weather.ErrInvalidRequest
	case http.StatusNotFound:
		kind = weather.ErrNoDataForLocation
	default:
		kind = weather.ErrTransport
	}
	return &weather.ProviderError{
		Kind:       kind,
		Provider:   c.name,
		StatusCode: status,
		Message:    errorMessage(body),
	}
}

// errorMessage pulls a reason out of an error body. WeatherAPI nests it under
// error.message, Open-Meteo uses a top level reason.
func errorMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	var nested struct {
		Message string `json:"message"`
	}
	if raw, ok := payload["error"]; ok && json.Unmarshal(raw, &nested) == nil && nested.Message != "" {
		return nested.Message
	}

	var reason string
	if raw, ok := payload["reason"]; ok && json.Unmarshal(raw, &reason) == nil {
		return reason
	}
	return ""
}

// redactURL drops the request URL from transport errors; it may carry an API key.
func redactURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s request failed: %w", ue.Op, ue.Err)
	}
	return err
}

// formatCoord renders the shortest decimal that round-trips.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
