package pet

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Post("/", func(c *fiber.Ctx) error {
		var req Pet
		if err := c.BodyParser(&req); err != nil || req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}
		req.OwnerID, _ = c.Locals("user_id").(string)
		created, err := svc.CreatePet(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		ownerID, _ := c.Locals("user_id").(string)
		pets, err := svc.ListPets(c.Context(), ownerID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(pets)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		p, err := svc.GetPet(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "pet not found")
		}
		return c.JSON(p)
	})

	r.Put("/:id", func(c *fiber.Ctx) error {
		var req Pet
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		ownerID, _ := c.Locals("user_id").(string)
		updated, err := svc.UpdatePet(c.Context(), c.Params("id"), ownerID, req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(updated)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		ownerID, _ := c.Locals("user_id").(string)
		if err := svc.DeletePet(c.Context(), c.Params("id"), ownerID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
