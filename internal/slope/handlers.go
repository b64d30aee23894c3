package slope

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		slopes, err := svc.ListSlopes(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(slopes)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		sl, err := svc.GetSlope(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "slope not found")
		}
		return c.JSON(sl)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Slope
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}
		sl, err := svc.CreateSlope(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(sl)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteSlope(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/elevation", authMiddleware, func(c *fiber.Ctx) error {
		sl, err := svc.EnrichElevation(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(sl)
	})

	r.Post("/import/osm", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			BBox string `json:"bbox"`
		}
		if err := c.BodyParser(&body); err != nil || body.BBox == "" {
			return fiber.NewError(fiber.StatusBadRequest, "bbox required")
		}
		created, err := svc.ImportOSM(c.Context(), body.BBox)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})
}
