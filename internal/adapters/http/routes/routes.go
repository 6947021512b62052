package routes

import (
	"payportal/internal/adapters/http/handlers"
	"payportal/internal/adapters/http/middleware"
	"payportal/internal/config"
	"payportal/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, cfg *config.Config, svc *services.Services) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg, nil)
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg)
	paymentHandler := handlers.NewPaymentHandler(svc.Payments)
	adminHandler := handlers.NewAdminHandler(svc.Review)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, healthHandler, authHandler, paymentHandler, adminHandler, cfg)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	paymentHandler *handlers.PaymentHandler,
	adminHandler *handlers.AdminHandler,
	cfg *config.Config,
) {
	router.Get("/", healthHandler.APIInfo)

	// Auth routes (public)
	authRoutes := router.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Customer payment routes
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Use(middleware.AuthMiddleware(cfg), middleware.NoCacheHeaders())
	setupPaymentRoutes(paymentRoutes, paymentHandler)

	// Employee review routes
	adminRoutes := router.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg), middleware.EmployeeOnly(), middleware.NoCacheHeaders())
	setupAdminRoutes(adminRoutes, adminHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), middleware.NoCacheHeaders(), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupPaymentRoutes configures customer payment routes
func setupPaymentRoutes(router fiber.Router, handler *handlers.PaymentHandler) {
	router.Post("/", middleware.CustomerOnly(), handler.Create)
	router.Get("/", handler.ListMine)
}

// setupAdminRoutes configures payment review routes (employees only)
func setupAdminRoutes(router fiber.Router, handler *handlers.AdminHandler) {
	router.Get("/payments", handler.ListPayments)
	router.Get("/payments/:id/history", handler.History)
	router.Patch("/payments/:id/verify", handler.Verify)
	router.Post("/payments/:id/submit", handler.Submit)
}
