package weather

import (
	"context"
	"fmt"
	"sort"

	"github.com/i474232898/weather-history/internal/logger"
)

// Service routes historical queries to the configured sources by name.
type Service struct {
	sources map[string]HistoricalSource
	log     logger.Logger
}

// NewService creates a new Service. Later sources replace earlier ones with the same name.
func NewService(log logger.Logger, sources ...HistoricalSource) *Service {
	if log == nil {
		log = logger.Discard()
	}
	m := make(map[string]HistoricalSource, len(sources))
	for _, s := range sources {
		m[s.Name()] = s
	}
	return &Service{
		sources: m,
		log:     log.WithField("component", "weather_service"),
	}
}

// Sources lists the registered provider names in sorted order.
func (s *Service) Sources() []string {
	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FetchHistory runs q against the named provider. Failures are classified, logged and returned.
func (s *Service) FetchHistory(ctx context.Context, provider string, q HistoricalQuery) (HistoricalResult, error) {
	src, ok := s.sources[provider]
	if !ok {
		return HistoricalResult{}, NewProviderError(ErrInvalidRequest, provider,
			fmt.Errorf("unknown provider; available: %v", s.Sources()))
	}

	res, err := src.FetchHistory(ctx, q)
	if err != nil {
		s.log.WithFields(map[string]interface{}{
			"provider": provider,
			"kind":     KindName(err),
		}).Warnf("history fetch failed: %v", err)
		return HistoricalResult{}, err
	}

	s.log.WithFields(map[string]interface{}{
		"provider":   provider,
		"start_date": res.Query.StartDate,
		"end_date":   res.Query.EndDate,
		"bytes":      len(res.Payload),
	}).Debugf("history fetch succeeded")
	return res, nil
}
