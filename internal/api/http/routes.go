package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-history/internal/geocoding"
	"github.com/i474232898/weather-history/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
// resolver may be nil, in which case only coordinate queries are accepted.
func RegisterRoutes(app *fiber.App, service *weather.Service, resolver geocoding.Resolver) {
	v1 := app.Group("/api/v1")

	v1.Get("/history/providers", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"providers": service.Sources(),
		})
	})

	v1.Get("/history/:provider", func(c *fiber.Ctx) error {
		var req historyQuery
		req.bind(c)

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		q, err := req.toQuery(c.UserContext(), resolver)
		if err != nil {
			return err
		}

		res, err := service.FetchHistory(c.UserContext(), c.Params("provider"), q)
		if err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		c.Set("X-Weather-Provider", res.Provider)
		c.Set("X-Effective-Start-Date", res.Query.StartDate)
		c.Set("X-Effective-End-Date", res.Query.EndDate)
		return c.Send(res.Payload)
	})
}

// ErrorHandler renders every error as JSON. Provider errors keep their classification.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	kind := weather.KindName(err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code == fiber.StatusBadRequest {
			kind = "invalid_request"
		} else {
			kind = "http_error"
		}
	} else if weather.KindOf(err) != nil {
		code = weather.StatusFor(err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"kind":    kind,
		"message": err.Error(),
	})
}

// historyQuery holds query parameters for the history endpoint.
// Either lat/lon or city (with optional country) identifies the place.
type historyQuery struct {
	Lat       string `validate:"required_without=City,omitempty,numeric"`
	Lon       string `validate:"required_with=Lat,omitempty,numeric"`
	City      string
	Country   string
	StartDate string `validate:"required,datetime=2006-01-02"`
	EndDate   string `validate:"required,datetime=2006-01-02"`
	Daily     string
}

func (h *historyQuery) bind(c *fiber.Ctx) {
	h.Lat = strings.TrimSpace(c.Query("lat"))
	h.Lon = strings.TrimSpace(c.Query("lon"))
	h.City = strings.TrimSpace(c.Query("city"))
	h.Country = strings.TrimSpace(c.Query("country"))
	h.StartDate = strings.TrimSpace(c.Query("start_date"))
	h.EndDate = strings.TrimSpace(c.Query("end_date"))
	h.Daily = c.Query("daily")
}

func (h historyQuery) toQuery(ctx context.Context, resolver geocoding.Resolver) (weather.HistoricalQuery, error) {
	q := weather.HistoricalQuery{
		StartDate: h.StartDate,
		EndDate:   h.EndDate,
		Fields:    splitFields(h.Daily),
	}

	if h.Lat != "" {
		lat, err := strconv.ParseFloat(h.Lat, 64)
		if err != nil {
			return q, fiber.NewError(fiber.StatusBadRequest, "invalid lat")
		}
		lon, err := strconv.ParseFloat(h.Lon, 64)
		if err != nil {
			return q, fiber.NewError(fiber.StatusBadRequest, "invalid lon")
		}
		q.Latitude, q.Longitude = lat, lon
		return q, nil
	}

	if resolver == nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "city lookup is not enabled; pass lat and lon")
	}
	lat, lon, err := resolver.Resolve(ctx, h.City, h.Country)
	if err != nil {
		return q, err
	}
	q.Latitude, q.Longitude = lat, lon
	return q, nil
}

func splitFields(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
