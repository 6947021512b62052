package handlers

import (
	"payportal/internal/core/domain"
	"payportal/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// actorFrom reads the principal placed in Locals by the auth middleware
func actorFrom(c *fiber.Ctx) (services.Actor, bool) {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return services.Actor{}, false
	}
	role, ok := c.Locals("role").(domain.Role)
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{UserID: userID, Role: role, IP: c.IP()}, true
}
