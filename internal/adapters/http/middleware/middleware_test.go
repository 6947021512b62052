package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"payportal/internal/core/domain"
	"payportal/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics())
	app.Get("/ping/:id", func(c *fiber.Ctx) error { return c.SendString("pong") })

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/ping/:id", "200")
	before := testutil.ToFloat64(counter)

	for _, path := range []string{"/ping/1", "/ping/2"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestNoCacheHeaders(t *testing.T) {
	app := fiber.New()
	app.Get("/", NoCacheHeaders(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-store")
}

func TestRequireCapability(t *testing.T) {
	tests := []struct {
		name   string
		role   any
		guard  fiber.Handler
		status int
	}{
		{"employee on review route", domain.RoleEmployee, EmployeeOnly(), fiber.StatusOK},
		{"customer on review route", domain.RoleCustomer, EmployeeOnly(), fiber.StatusForbidden},
		{"customer on payment route", domain.RoleCustomer, CustomerOnly(), fiber.StatusOK},
		{"employee on payment route", domain.RoleEmployee, CustomerOnly(), fiber.StatusForbidden},
		{"no principal", nil, EmployeeOnly(), fiber.StatusUnauthorized},
		{"raw string role", "employee", EmployeeOnly(), fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				if tt.role != nil {
					c.Locals("role", tt.role)
				}
				return c.Next()
			}, tt.guard, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
