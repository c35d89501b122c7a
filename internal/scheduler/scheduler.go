// Package scheduler runs the engine's periodic maintenance: a nightly cache
// sweep and prewarm so the first dashboard load of the day is served from a
// fresh aggregation.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dealerpulse/dashboard-engine/internal/provider"
)

// Scheduler owns the cron runner. All jobs stop when Stop is called.
type Scheduler struct {
	cron     *cron.Cron
	provider *provider.Provider
	logger   *zap.Logger
	schedule string
}

// New creates a scheduler with the given cron expression for the nightly
// refresh (seconds-precision, UTC).
func New(p *provider.Provider, logger *zap.Logger, schedule string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		provider: p,
		logger:   logger,
		schedule: schedule,
	}
}

// Start registers and starts the scheduled jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.nightlyRefresh); err != nil {
		return fmt.Errorf("failed to schedule nightly refresh: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("nightly_refresh", s.schedule))
	return nil
}

// Stop halts the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// nightlyRefresh drops the memoized results and prewarms each dashboard
// type so the morning's first load does not pay the aggregation cost.
func (s *Scheduler) nightlyRefresh() {
	started := time.Now()
	s.provider.ClearCache()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, dashboardType := range []provider.DashboardType{
		provider.DashboardTypeSalesperson,
		provider.DashboardTypeDealership,
		provider.DashboardTypeManager,
	} {
		data := s.provider.GetDashboardData(ctx, dashboardType, provider.Options{})
		if data.Error != "" {
			s.logger.Warn("nightly prewarm failed",
				zap.String("dashboard_type", string(dashboardType)),
				zap.String("error", data.Error))
		}
	}

	s.logger.Info("nightly refresh completed", zap.Duration("duration", time.Since(started)))
}
