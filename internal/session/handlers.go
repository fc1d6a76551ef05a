package session

import (
	"errors"

	"backend-pawtrail/internal/walk"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, mgr *Manager, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Get("/", func(c *fiber.Ctx) error {
		sess := mgr.Get(c.Context(), userID(c))
		return c.JSON(sess.View())
	})

	r.Post("/start", func(c *fiber.Ctx) error {
		var body struct {
			PetIDs []string `json:"pet_ids"`
		}
		if err := c.BodyParser(&body); err != nil && len(c.Body()) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		sess := mgr.Get(c.Context(), userID(c))
		sess.Start(body.PetIDs)
		return c.JSON(sess.View())
	})

	r.Post("/position", func(c *fiber.Ctx) error {
		var p walk.Point
		if err := c.BodyParser(&p); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		sess := mgr.Get(c.Context(), userID(c))
		sess.Offer(p)
		return c.JSON(fiber.Map{"ok": true})
	})

	r.Post("/pause", func(c *fiber.Ctx) error {
		sess := mgr.Get(c.Context(), userID(c))
		sess.Pause()
		return c.JSON(sess.View())
	})

	r.Post("/resume", func(c *fiber.Ctx) error {
		sess := mgr.Get(c.Context(), userID(c))
		sess.Resume()
		return c.JSON(sess.View())
	})

	r.Post("/marker", func(c *fiber.Ctx) error {
		var body struct {
			Kind string `json:"type"`
		}
		if err := c.BodyParser(&body); err != nil || !ValidMarker(body.Kind) {
			return fiber.NewError(fiber.StatusBadRequest, "type must be poop, pee or water")
		}
		sess := mgr.Get(c.Context(), userID(c))
		sess.DropMarker(body.Kind)
		return c.JSON(sess.View())
	})

	r.Post("/pets", func(c *fiber.Ctx) error {
		var body struct {
			PetIDs []string `json:"pet_ids"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		sess := mgr.Get(c.Context(), userID(c))
		sess.SetPets(body.PetIDs)
		return c.JSON(sess.View())
	})

	r.Post("/finish", func(c *fiber.Ctx) error {
		var opts FinishOptions
		if err := c.BodyParser(&opts); err != nil && len(c.Body()) > 0 {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if opts.Visibility != "" && !walk.ValidVisibility(opts.Visibility) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid visibility")
		}

		sess := mgr.Get(c.Context(), userID(c))
		created, err := sess.Finish(c.Context(), opts)
		if err != nil {
			if errors.Is(err, ErrNoActiveSession) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			// The walk payload is gone; the session was cleared before
			// the gateway call. Tell the caller so the UI can offer a
			// manual retry from its own copy.
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		if created.ID == "" {
			return c.JSON(fiber.Map{"discarded": true})
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Post("/discard", func(c *fiber.Ctx) error {
		sess := mgr.Get(c.Context(), userID(c))
		sess.Discard()
		return c.JSON(sess.View())
	})

	r.Post("/visibility", func(c *fiber.Ctx) error {
		var body struct {
			Hidden bool `json:"hidden"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		sess := mgr.Get(c.Context(), userID(c))
		sess.HandleVisibility(body.Hidden)
		return c.JSON(sess.View())
	})

	r.Put("/settings", func(c *fiber.Ctx) error {
		var body struct {
			AutoPauseOnHide bool `json:"auto_pause_on_hide"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		sess := mgr.Get(c.Context(), userID(c))
		sess.SetAutoPause(body.AutoPauseOnHide)
		return c.JSON(sess.View())
	})
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
