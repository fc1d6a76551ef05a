package walk

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Post("/", func(c *fiber.Ctx) error {
		var req CreateWalkInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.OwnerID, _ = c.Locals("user_id").(string)

		created, err := svc.CreateWalk(c.Context(), req)
		if err != nil {
			switch {
			case errors.Is(err, ErrEmptyRoute), errors.Is(err, ErrInvalidVisibility):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			default:
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		viewerID, _ := c.Locals("user_id").(string)
		limit := c.QueryInt("limit", 20)
		walks, err := svc.Feed(c.Context(), viewerID, c.Query("group_id"), limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if walks == nil {
			walks = []Walk{}
		}
		return c.JSON(walks)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		viewerID, _ := c.Locals("user_id").(string)
		w, err := svc.Get(c.Context(), c.Params("id"), viewerID)
		if err != nil {
			switch {
			case errors.Is(err, ErrWalkNotFound):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			case errors.Is(err, ErrPrivateWalk), errors.Is(err, ErrFriendsOnly),
				errors.Is(err, ErrGroupOnly), errors.Is(err, ErrNotVisible):
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			default:
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
		}
		return c.JSON(w)
	})
}
