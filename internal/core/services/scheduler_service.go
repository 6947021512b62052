package services

import (
	"context"
	"fmt"
	"time"

	"payportal/internal/config"
	"payportal/internal/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 2 * time.Minute

// SchedulerService runs background jobs: SWIFT dispatch and refresh token cleanup
type SchedulerService struct {
	cron     *cron.Cron
	dispatch *SwiftDispatchService
	auth     *AuthService
	cfg      config.DispatchConfig
}

// NewSchedulerService creates a new scheduler
func NewSchedulerService(dispatch *SwiftDispatchService, auth *AuthService, cfg config.DispatchConfig) *SchedulerService {
	cl := cronLogger{l: logger.Get().Sugar()}
	return &SchedulerService{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		dispatch: dispatch,
		auth:     auth,
		cfg:      cfg,
	}
}

// Start registers the jobs and starts the scheduler
func (s *SchedulerService) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.runDispatch); err != nil {
		return fmt.Errorf("invalid dispatch schedule %q: %w", s.cfg.Schedule, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.CleanupSchedule, s.runCleanup); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.cfg.CleanupSchedule, err)
	}

	s.cron.Start()
	logger.Info("scheduler started",
		logger.String("dispatch", s.cfg.Schedule),
		logger.String("cleanup", s.cfg.CleanupSchedule),
	)
	return nil
}

// Stop stops scheduling and waits for running jobs
func (s *SchedulerService) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("scheduler stopped")
}

func (s *SchedulerService) runDispatch() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.dispatch.DispatchPending(ctx); err != nil {
		logger.Error("swift dispatch run failed", logger.Err(err))
	}
}

func (s *SchedulerService) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.auth.CleanupExpiredTokens(ctx)
	if err != nil {
		logger.Error("refresh token cleanup failed", logger.Err(err))
		return
	}
	logger.Info("expired refresh tokens removed", logger.Int64("count", n))
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
