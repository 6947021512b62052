package middleware

import (
	"errors"
	"strings"

	"payportal/internal/config"
	"payportal/internal/core/domain"
	"payportal/internal/pkg/jwt"
	"payportal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates the access token and stores the principal in Locals
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := tokenFrom(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// tokens carrying an unknown role are never honoured
		role, err := domain.ParseRole(claims.Role)
		if err != nil {
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals("userID", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("role", role)

		return c.Next()
	}
}

// tokenFrom reads the access token from the cookie, then the Authorization header
func tokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// RequireCapability allows the request when the principal's role grants it
func RequireCapability(allowed func(domain.Role) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(domain.Role)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !allowed(role) {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}
		return c.Next()
	}
}

// EmployeeOnly allows roles that review payments
func EmployeeOnly() fiber.Handler {
	return RequireCapability(domain.Role.CanReviewPayments)
}

// CustomerOnly allows roles that submit payments
func CustomerOnly() fiber.Handler {
	return RequireCapability(domain.Role.CanSubmitPayments)
}
