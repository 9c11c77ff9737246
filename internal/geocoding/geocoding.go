package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-history/internal/common"
	"github.com/i474232898/weather-history/internal/weather"
)

const providerName = "geocoder"

// Resolver turns a place name into coordinates.
type Resolver interface {
	Resolve(ctx context.Context, city, country string) (lat, lon float64, err error)
}

// The geocoder package keeps its key and endpoint in package variables, so
// lookups are serialized. A one-slot channel lets waiters give up on ctx.
var lookupSlot = make(chan struct{}, 1)

// GoogleResolver resolves places through the Google Geocoding API.
type GoogleResolver struct {
	apiKey string
	apiURL string
	lookup func(geocoder.Address) (geocoder.Location, error)
}

// NewGoogleResolver requires a Google API key.
func NewGoogleResolver(apiKey string) (*GoogleResolver, error) {
	if apiKey == "" {
		return nil, weather.NewProviderError(weather.ErrConfiguration, providerName,
			errors.New("GEOCODER_API_KEY is not set"))
	}
	return &GoogleResolver{apiKey: apiKey, apiURL: geocoder.ApiUrl, lookup: geocoder.Geocoding}, nil
}

type lookupResult struct {
	loc geocoder.Location
	err error
}

// Resolve returns as soon as ctx is done. The geocoder library cannot cancel
// its own request, so an abandoned lookup keeps the slot until it returns.
func (r *GoogleResolver) Resolve(ctx context.Context, city, country string) (float64, float64, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return 0, 0, weather.NewProviderError(weather.ErrInvalidRequest, providerName,
			errors.New("city is required"))
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, weather.NewProviderError(weather.ErrTransport, providerName, err)
	}

	select {
	case lookupSlot <- struct{}{}:
	case <-ctx.Done():
		return 0, 0, weather.NewProviderError(weather.ErrTransport, providerName, ctx.Err())
	}

	addr := geocoder.Address{City: city, Country: strings.TrimSpace(country)}
	done := make(chan lookupResult, 1)
	go func() {
		defer func() { <-lookupSlot }()
		loc, err := r.guardedLookup(addr)
		done <- lookupResult{loc: loc, err: err}
	}()

	var res lookupResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return 0, 0, weather.NewProviderError(weather.ErrTransport, providerName, ctx.Err())
	}

	if err := res.err; err != nil {
		if common.HasAny(err.Error(), "ZERO_RESULTS", "no results") {
			return 0, 0, weather.NewProviderError(weather.ErrNoDataForLocation, providerName, err)
		}
		if common.HasAny(err.Error(), "INVALID_REQUEST", "invalid request") {
			return 0, 0, weather.NewProviderError(weather.ErrInvalidRequest, providerName, err)
		}
		return 0, 0, weather.NewProviderError(weather.ErrTransport, providerName, err)
	}
	return res.loc.Latitude, res.loc.Longitude, nil
}

// guardedLookup runs with the slot held. The library indexes the first result
// without checking for statuses it does not know (OVER_DAILY_LIMIT), so a
// panic there is turned into an error.
func (r *GoogleResolver) guardedLookup(addr geocoder.Address) (loc geocoder.Location, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("unexpected geocoder response: %v", rec)
		}
	}()

	geocoder.ApiKey = r.apiKey
	geocoder.ApiUrl = r.apiURL
	loc, err = r.lookup(addr)
	return loc, redactURL(err)
}

// The request URL carries the key; keep it out of error text.
func redactURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s request failed: %w", ue.Op, ue.Err)
	}
	return err
}
