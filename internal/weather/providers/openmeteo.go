package providers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/i474232898/weather-history/internal/weather"
)

const (
	openMeteoName    = "openmeteo"
	openMeteoBaseURL = "https://archive-api.open-meteo.com/v1/archive"
)

// DefaultOpenMeteoFields are the daily metrics requested when a query names none.
var DefaultOpenMeteoFields = []string{
	"temperature_2m_max",
	"temperature_2m_min",
	"temperature_2m_mean",
	"precipitation_sum",
}

// NewOpenMeteoProvider returns a client for the Open-Meteo archive API.
// No key is needed and the start date is never altered.
func NewOpenMeteoProvider(client *http.Client, opts ...Option) *Client {
	return newClient(variant{
		name:    openMeteoName,
		baseURL: openMeteoBaseURL,
		params:  openMeteoParams,
	}, client, opts...)
}

func openMeteoParams(q weather.HistoricalQuery) url.Values {
	fields := q.Fields
	if len(fields) == 0 {
		fields = DefaultOpenMeteoFields
	}

	values := url.Values{}
	values.Set("latitude", formatCoord(q.Latitude))
	values.Set("longitude", formatCoord(q.Longitude))
	values.Set("start_date", q.StartDate)
	values.Set("end_date", q.EndDate)
	values.Set("daily", strings.Join(fields, ","))
	values.Set("timezone", "auto")
	return values
}
