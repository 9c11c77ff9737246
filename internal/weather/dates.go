package weather

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the calendar date format every provider expects.
const DateLayout = "2006-01-02"

// DatePolicy holds the per-provider date bounds.
type DatePolicy struct {
	// MinStartDate floors StartDate when set.
	MinStartDate string
}

var validate = validator.New()

// Today returns now's local calendar date.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// ValidateQuery checks the dates are fixed-width YYYY-MM-DD values.
// Coordinates are left for the provider to reject.
func ValidateQuery(q HistoricalQuery) error {
	if err := validate.Struct(q); err != nil {
		return &ProviderError{
			Kind:    ErrInvalidRequest,
			Message: "dates must be YYYY-MM-DD",
			Err:     err,
		}
	}
	return nil
}

// NormalizeQuery clamps EndDate to today and floors StartDate to the policy minimum.
// Dates are compared as strings, which is only valid for validated YYYY-MM-DD values.
func NormalizeQuery(q HistoricalQuery, policy DatePolicy, today string) HistoricalQuery {
	out := q
	if len(q.Fields) > 0 {
		out.Fields = append([]string(nil), q.Fields...)
	}

	if out.EndDate > today {
		out.EndDate = today
	}
	if policy.MinStartDate != "" && out.StartDate < policy.MinStartDate {
		out.StartDate = policy.MinStartDate
	}
	return out
}
