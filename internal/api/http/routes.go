package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/mordonez/healthdash/internal/health"
)

var validate = validator.New()

// RegisterRoutes wires the dashboard HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *health.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/daily", func(c *fiber.Ctx) error {
		var req rangeQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.Daily(req.From, req.To)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load daily data")
		}
		if len(records) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no daily data for requested range")
		}

		return c.JSON(fiber.Map{
			"from": req.From,
			"to":   req.To,
			"days": records,
		})
	})

	v1.Get("/weekly", func(c *fiber.Ctx) error {
		var req weeklyQuery
		if err := c.QueryParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Weeks == 0 {
			req.Weeks = 12
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.Daily(time.Time{}, time.Time{})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load daily data")
		}

		series := health.Weekly(records, req.Weeks, time.Now().UTC())
		if len(series) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no data for requested weeks")
		}

		return c.JSON(fiber.Map{
			"weeks":  req.Weeks,
			"series": series,
		})
	})

	v1.Get("/metrics", func(c *fiber.Ctx) error {
		return c.JSON(health.MetadataCatalog())
	})

	v1.Get("/status", func(c *fiber.Ctx) error {
		report := service.LastReport()
		if report == nil {
			return fiber.NewError(fiber.StatusNotFound, "no sync run has completed yet")
		}
		return c.JSON(report)
	})
}

// rangeQuery holds the optional from/to bounds of the daily endpoint.
type rangeQuery struct {
	From time.Time
	To   time.Time
}

func (r *rangeQuery) bind(c *fiber.Ctx) error {
	if fromStr := c.Query("from"); fromStr != "" {
		from, err := parseTime(fromStr)
		if err != nil {
			return err
		}
		r.From = from
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err := parseTime(toStr)
		if err != nil {
			return err
		}
		r.To = to
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return errors.New("to must not be before from")
	}
	return nil
}

// weeklyQuery holds query parameters for the weekly endpoint.
type weeklyQuery struct {
	Weeks int `query:"weeks" validate:"min=1,max=104"`
}

// parseTime accepts RFC3339 or plain YYYY-MM-DD dates.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or YYYY-MM-DD")
}
