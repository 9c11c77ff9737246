// Command history-probe fetches a fixed location and date range from one
// provider and prints the raw JSON, for manual inspection.
//
//	history-probe [openmeteo|weatherapi]
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/i474232898/weather-history/internal/config"
	"github.com/i474232898/weather-history/internal/logger"
	"github.com/i474232898/weather-history/internal/weather"
	"github.com/i474232898/weather-history/internal/weather/providers"
)

var probeQuery = weather.HistoricalQuery{
	Latitude:  8.80,
	Longitude: -70.86,
	StartDate: "2025-06-20",
	EndDate:   "2025-06-30",
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("INFO: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	probeLog := logger.New(cfg.LogLevel, cfg.Env).WithField("service", "history-probe")

	name := config.ProviderWeatherAPI
	if len(os.Args) > 1 {
		name = os.Args[1]
	}

	var src weather.HistoricalSource
	switch name {
	case config.ProviderOpenMeteo:
		src = providers.NewOpenMeteoProvider(nil, providers.WithLogger(probeLog))
	case config.ProviderWeatherAPI:
		p, err := providers.NewWeatherAPIProvider(nil, cfg.WeatherAPIKey, providers.WithLogger(probeLog))
		if err != nil {
			probeLog.Fatalf("%v", err)
		}
		src = p
	default:
		probeLog.Fatalf("unknown provider %q", name)
	}

	res, err := src.FetchHistory(context.Background(), probeQuery)
	if err != nil {
		probeLog.WithField("kind", weather.KindName(err)).Fatalf("%v", err)
	}

	fmt.Println(string(res.Payload))
}
