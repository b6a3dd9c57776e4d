package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmtrack/internal/config"
	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

const runTimeout = 2 * time.Minute

// Reconciler produces and delivers a reconciliation report.
type Reconciler interface {
	Run(ctx context.Context, now time.Time) (models.ReconciliationReport, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
	schedule   string
	logger     *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, reconciler Reconciler, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		reconciler: reconciler,
		schedule:   cfg.CronSchedule,
		logger:     logger,
	}, nil
}

// Start registers the reconciliation job and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runReconciliation); err != nil {
		return fmt.Errorf("schedule reconciliation %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runReconciliation() {
	s.logger.Info("running scheduled reconciliation")
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if _, err := s.reconciler.Run(ctx, time.Now()); err != nil {
		s.logger.Error("scheduled reconciliation failed", zap.Error(err))
	}
}
