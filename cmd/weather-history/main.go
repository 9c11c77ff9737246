package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/i474232898/weather-history/internal/api/http"
	"github.com/i474232898/weather-history/internal/config"
	"github.com/i474232898/weather-history/internal/geocoding"
	"github.com/i474232898/weather-history/internal/logger"
	"github.com/i474232898/weather-history/internal/weather"
	"github.com/i474232898/weather-history/internal/weather/providers"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("INFO: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog := logger.New(cfg.LogLevel, cfg.Env).WithField("service", "weather-history")

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	sources, err := buildSources(cfg, httpClient, appLog)
	if err != nil {
		appLog.Fatalf("failed to configure providers: %v", err)
	}

	service := weather.NewService(appLog, sources...)

	// City lookups are optional and only enabled with a geocoder key.
	var resolver geocoding.Resolver
	if cfg.GeocoderAPIKey != "" {
		r, err := geocoding.NewGoogleResolver(cfg.GeocoderAPIKey)
		if err != nil {
			appLog.Fatalf("failed to configure geocoder: %v", err)
		}
		resolver = r
	}

	app := fiber.New(fiber.Config{
		AppName:               "weather-history",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   "weather-history",
			"providers": service.Sources(),
		})
	})

	httpapi.RegisterRoutes(app, service, resolver)

	go func() {
		appLog.Infof("listening on :%s with providers %v", cfg.Port, service.Sources())
		if err := app.Listen(":" + cfg.Port); err != nil {
			appLog.Errorf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLog.Errorf("error during shutdown: %v", err)
	}
}

// buildSources constructs every enabled provider. A provider that cannot be
// configured (e.g. a missing WEATHER_API_KEY) stops startup.
func buildSources(cfg *config.AppConfig, client *http.Client, log logger.Logger) ([]weather.HistoricalSource, error) {
	opts := []providers.Option{
		providers.WithLogger(log),
		providers.WithBreaker(providers.BreakerConfig{
			MaxRequests: cfg.BreakerMaxRequests,
			Interval:    cfg.BreakerInterval,
			Timeout:     cfg.BreakerTimeout,
		}),
	}

	var sources []weather.HistoricalSource
	for _, name := range cfg.Providers {
		switch name {
		case config.ProviderOpenMeteo:
			sources = append(sources, providers.NewOpenMeteoProvider(client, opts...))
		case config.ProviderWeatherAPI:
			p, err := providers.NewWeatherAPIProvider(client, cfg.WeatherAPIKey, opts...)
			if err != nil {
				return nil, err
			}
			sources = append(sources, p)
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}
	return sources, nil
}
