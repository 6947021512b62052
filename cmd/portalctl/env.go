package main

import (
	"context"
	"fmt"

	"payportal/internal/adapters/persistence/models"
	"payportal/internal/adapters/swift"
	"payportal/internal/config"
	"payportal/internal/core/services"
	"payportal/internal/pkg/keysource"
	"payportal/internal/pkg/logger"
)

// env is the service graph shared by the database commands
type env struct {
	identity *services.IdentityService
	auth     *services.AuthService
}

func openEnv(ctx context.Context) (*env, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	logger.Init(cfg.AppMode, cfg.Log.Level, cfg.Log.Format)

	cipher, indexer, err := keysource.Open(ctx, cfg.Crypto)
	if err != nil {
		return nil, nil, fmt.Errorf("load field encryption keys: %w", err)
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	closeFn := func() {
		_ = config.CloseDatabase()
		logger.Sync()
	}
	if err := models.AutoMigrate(db); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("auto migrate: %w", err)
	}

	svc := services.NewServices(db, cfg, cipher, indexer, swift.NewLogPublisher())
	return &env{identity: svc.Identity, auth: svc.Auth}, closeFn, nil
}
