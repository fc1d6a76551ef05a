package social

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Post("/users/:id/follow", func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.Follow(c.Context(), userID, c.Params("id")); err != nil {
			if errors.Is(err, ErrSelfFollow) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"ok": true})
	})

	r.Post("/users/:id/unfollow", func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.Unfollow(c.Context(), userID, c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"ok": true})
	})

	r.Get("/users/me/relations", func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		relations, err := svc.Relations(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(relations)
	})

	r.Get("/users/search", func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		users, err := svc.SearchUsers(c.Context(), userID, c.Query("q"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(users)
	})

	r.Get("/groups", func(c *fiber.Ctx) error {
		groups, err := svc.ListGroups(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(groups)
	})

	r.Get("/groups/mine", func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		groups, err := svc.MyGroups(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(groups)
	})

	r.Get("/groups/requests/mine", func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		requests, err := svc.MyJoinRequests(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(requests)
	})

	r.Post("/groups", func(c *fiber.Ctx) error {
		var req Group
		if err := c.BodyParser(&req); err != nil || req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}
		req.CreatedBy, _ = c.Locals("user_id").(string)
		group, err := svc.CreateGroup(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(group)
	})

	r.Post("/groups/:id/join", func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		outcome, err := svc.JoinGroup(c.Context(), userID, c.Params("id"))
		if err != nil {
			switch {
			case errors.Is(err, ErrGroupNotFound):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			case errors.Is(err, ErrPrivateGroup):
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			default:
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
		}
		return c.JSON(fiber.Map{"ok": true, "status": outcome.Status})
	})

	r.Post("/groups/:id/leave", func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if err := svc.LeaveGroup(c.Context(), userID, c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"ok": true})
	})

	r.Post("/groups/:id/requests/:userId/approve", func(c *fiber.Ctx) error {
		ownerID, _ := c.Locals("user_id").(string)
		err := svc.ApproveRequest(c.Context(), ownerID, c.Params("id"), c.Params("userId"))
		if err != nil {
			switch {
			case errors.Is(err, ErrGroupNotFound):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			case errors.Is(err, ErrNotGroupOwner):
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			default:
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
		}
		return c.JSON(fiber.Map{"ok": true})
	})
}
