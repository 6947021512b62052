package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"payportal/internal/adapters/http/middleware"
	"payportal/internal/adapters/http/routes"
	"payportal/internal/adapters/persistence/models"
	"payportal/internal/adapters/swift"
	"payportal/internal/config"
	"payportal/internal/core/services"
	"payportal/internal/pkg/keysource"
	"payportal/internal/pkg/logger"
	"payportal/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"

	_ "payportal/docs" // Swagger docs
)

// @title International Payment Portal API
// @version 1.0
// @description Customer payments with employee verification and SWIFT submission.

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger.Init(cfg.AppMode, cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()
	if !cfg.EnvFileLoaded {
		logger.Warn(".env file not found, using environment variables")
	}

	// Field encryption keys are resolved once; a bad key stops the process
	cipher, indexer, err := keysource.Open(context.Background(), cfg.Crypto)
	if err != nil {
		logger.Fatal("failed to load field encryption keys", logger.Err(err))
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", logger.Err(err))
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		logger.Fatal("failed to auto migrate", logger.Err(err))
	}
	logger.Info("database migration completed")

	metrics.MustRegister()

	// SWIFT outbound publisher
	var publisher services.SwiftPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = swift.NewKafkaPublisher(cfg.Kafka)
		logger.Info("swift publisher: kafka", logger.String("topic", cfg.Kafka.Topic))
	} else {
		publisher = swift.NewLogPublisher()
		logger.Info("swift publisher: log only")
	}
	defer publisher.Close()

	svc := services.NewServices(db, cfg, cipher, indexer, publisher)

	scheduler := services.NewSchedulerService(svc.Dispatch, svc.Auth, cfg.Dispatch)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("failed to start scheduler", logger.Err(err))
	}
	defer scheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Payment Portal API v1.0",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: middleware.CustomErrorHandler,
	})

	middleware.Setup(app, cfg)
	routes.Setup(app, cfg, svc)

	go gracefulShutdown(app)

	logger.Info("server starting", logger.String("port", cfg.Port), logger.String("mode", cfg.AppMode))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server stopped with error", logger.Err(err))
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		logger.Error("error during shutdown", logger.Err(err))
	}
}
