package weather

import (
	"encoding/json"
)

// HistoricalQuery describes one request for daily historical observations.
// Dates are calendar dates in YYYY-MM-DD form.
type HistoricalQuery struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	StartDate string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	Fields    []string `json:"fields,omitempty"`
}

// HistoricalResult is a provider response passed through unmodified.
type HistoricalResult struct {
	Provider string `json:"provider"`

	// Query is the effective query after date normalization.
	Query HistoricalQuery `json:"query"`

	// Payload is the provider body exactly as received.
	Payload json.RawMessage `json:"payload"`
}
