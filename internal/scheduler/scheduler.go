// Package scheduler runs the periodic stale-session sweep. Sessions are
// short-lived by design; anything older than the configured maximum age is
// garbage.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bookway/stocktake/internal/config"
)

// Cleaner removes sessions created more than maxAge ago and reports how many
// were swept. The relay hub and the local sqlite store both implement it.
type Cleaner interface {
	CleanupExpired(ctx context.Context, maxAge time.Duration) (int, error)
}

// Scheduler manages the cleanup cron job.
type Scheduler struct {
	cron    *cron.Cron
	cleaner Cleaner
	cfg     config.CleanupConfig
	logger  *zap.Logger
}

// NewScheduler creates a scheduler sweeping the given cleaner.
func NewScheduler(cfg config.CleanupConfig, cleaner Cleaner, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:    cron.New(),
		cleaner: cleaner,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.sweep); err != nil {
		s.logger.Error("failed to schedule session cleanup", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	maxAge := time.Duration(s.cfg.MaxAgeHours) * time.Hour
	swept, err := s.cleaner.CleanupExpired(ctx, maxAge)
	if err != nil {
		s.logger.Error("session cleanup failed", zap.Error(err))
		return
	}
	if swept > 0 {
		s.logger.Info("expired sessions swept", zap.Int("count", swept))
	}
}
