package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// NoCacheHeaders forbids caching of responses carrying account data
func NoCacheHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		c.Set("Pragma", "no-cache")
		c.Set("Expires", "0")
		return c.Next()
	}
}
