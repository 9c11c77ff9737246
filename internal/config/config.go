package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Known provider names accepted in HISTORY_PROVIDERS.
const (
	ProviderOpenMeteo  = "openmeteo"
	ProviderWeatherAPI = "weatherapi"
)

type AppConfig struct {
	// WeatherAPIKey authenticates against WeatherAPI.com.
	WeatherAPIKey string
	// GeocoderAPIKey enables city/country lookups. Optional.
	GeocoderAPIKey string

	// Providers to register, in order.
	Providers []string

	// HTTPTimeout for outbound provider calls (0 = no override).
	HTTPTimeout time.Duration

	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration

	Port     string
	LogLevel string
	Env      string
}

// LoadDotEnv loads a .env file if present. A missing file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.WeatherAPIKey = strings.TrimSpace(os.Getenv("WEATHER_API_KEY"))
	cfg.GeocoderAPIKey = strings.TrimSpace(os.Getenv("GEOCODER_API_KEY"))

	providers, err := parseProviders(getenvDefault("HISTORY_PROVIDERS", ProviderOpenMeteo+","+ProviderWeatherAPI))
	if err != nil {
		return nil, err
	}
	cfg.Providers = providers

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "0"); err != nil {
		return nil, err
	}

	if cfg.BreakerMaxRequests, err = getenvUint32("BREAKER_MAX_REQUESTS", "5"); err != nil {
		return nil, err
	}

	if cfg.BreakerInterval, err = getenvDuration("BREAKER_INTERVAL", "1m"); err != nil {
		return nil, err
	}
	if cfg.BreakerTimeout, err = getenvDuration("BREAKER_TIMEOUT", "2m"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.Env = getenvDefault("APP_ENV", "development")

	return cfg, nil
}

func parseProviders(raw string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, p := range strings.Split(raw, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		switch p {
		case ProviderOpenMeteo, ProviderWeatherAPI:
		default:
			return nil, fmt.Errorf("invalid HISTORY_PROVIDERS: unknown provider %q", p)
		}
		seen[p] = true
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("invalid HISTORY_PROVIDERS: no providers configured")
	}
	return out, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvUint32(key, def string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(getenvDefault(key, def)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return uint32(n), nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}
