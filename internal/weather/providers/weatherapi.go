package providers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/i474232898/weather-history/internal/weather"
)

const (
	weatherAPIName    = "weatherapi"
	weatherAPIBaseURL = "http://api.weatherapi.com/v1/history.json"

	// WeatherAPIMinStartDate is the earliest date the history endpoint serves.
	WeatherAPIMinStartDate = "2010-01-01"
)

// NewWeatherAPIProvider returns a client for the WeatherAPI.com history endpoint.
// An empty apiKey fails here, before any request can be made.
func NewWeatherAPIProvider(client *http.Client, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, weather.NewProviderError(weather.ErrConfiguration, weatherAPIName,
			errors.New("WEATHER_API_KEY is not set"))
	}

	return newClient(variant{
		name:    weatherAPIName,
		baseURL: weatherAPIBaseURL,
		policy:  weather.DatePolicy{MinStartDate: WeatherAPIMinStartDate},
		params: func(q weather.HistoricalQuery) url.Values {
			values := url.Values{}
			// WeatherAPI uses "q" for location; "lat,lon" is accepted.
			values.Set("q", formatCoord(q.Latitude)+","+formatCoord(q.Longitude))
			values.Set("dt", q.StartDate)
			values.Set("end_dt", q.EndDate)
			values.Set("key", apiKey)
			return values
		},
	}, client, opts...), nil
}
