package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"go-pos-backoffice/internal/service"
)

// Helpers to read user info from the JWT context (set by auth middleware)
func getUserID(c *fiber.Ctx) string {
	userID := c.Locals("user_id")
	if userID == nil {
		return "system"
	}
	return userID.(string)
}

func getUserUUID(c *fiber.Ctx) uuid.UUID {
	id, err := uuid.Parse(getUserID(c))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

// parseDateQuery reads a YYYY-MM-DD query param. A missing param yields nil.
func parseDateQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, &service.ValidationError{Message: "Invalid date format for '" + name + "', expected YYYY-MM-DD"}
	}
	return &t, nil
}

// respondError translates service errors into HTTP responses.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case service.IsNotFound(err):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case service.IsConflict(err):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	case service.IsValidation(err):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
}
