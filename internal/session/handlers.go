package session

import (
	"context"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/mirukee/snow-recorder/internal/analysis"
)

// RegistryProvider supplies the slope registry an upload is classified
// against. The slope service implements it.
type RegistryProvider interface {
	Registry(ctx context.Context) *analysis.Registry
}

func RegisterRoutes(r fiber.Router, svc *Service, registry RegistryProvider, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		data, fileName, err := uploadedGPX(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := svc.Analyze(c.Context(), fileName, data, registry.Registry(c.Context()))
		if err != nil {
			if errors.Is(err, ErrNoTrackPoints) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		sessions, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(sessions)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		sess, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		return c.JSON(sess)
	})

	r.Get("/:id/segments", func(c *fiber.Ctx) error {
		records, err := svc.Segments(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(records)
	})

	r.Get("/:id/runs", func(c *fiber.Ctx) error {
		records, err := svc.Runs(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(records)
	})

	r.Get("/:id/stats", func(c *fiber.Ctx) error {
		records, err := svc.ZoneStats(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(records)
	})

	r.Get("/:id/report", func(c *fiber.Ctx) error {
		report, err := svc.Report(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(report)
	})
}

// uploadedGPX accepts either a multipart form with a "file" field or a raw
// GPX document as the request body.
func uploadedGPX(c *fiber.Ctx) ([]byte, string, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", err
		}
		return data, fh.Filename, nil
	}

	if len(c.Body()) == 0 {
		return nil, "", errors.New("gpx file required")
	}
	name := c.Query("name", "upload.gpx")
	return c.Body(), name, nil
}
