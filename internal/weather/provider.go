package weather

import (
	"context"
)

// HistoricalSource abstracts a historical weather data provider
// (e.g. Open-Meteo archive, WeatherAPI history).
//
// On error the returned HistoricalResult is the zero value and must not be used.
type HistoricalSource interface {
	Name() string
	FetchHistory(ctx context.Context, q HistoricalQuery) (HistoricalResult, error)
}
