package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmtrack/internal/config"
	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

type countingReconciler struct {
	calls chan time.Time
}

func (c *countingReconciler) Run(_ context.Context, now time.Time) (models.ReconciliationReport, error) {
	c.calls <- now
	return models.ReconciliationReport{}, nil
}

func TestNewScheduler_BadTimezone(t *testing.T) {
	_, err := NewScheduler(config.ReportingConfig{CronSchedule: "@daily", Timezone: "Mars/Olympus"}, &countingReconciler{}, nil)
	assert.ErrorContains(t, err, "load timezone")
}

func TestStart_BadSchedule(t *testing.T) {
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "every day", Timezone: "UTC"}, &countingReconciler{}, nil)
	require.NoError(t, err)
	assert.ErrorContains(t, s.Start(), "schedule reconciliation")
}

func TestStart_RunsReconciliation(t *testing.T) {
	rec := &countingReconciler{calls: make(chan time.Time, 4)}
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "@every 1s", Timezone: "Africa/Conakry"}, rec, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case <-rec.calls:
	case <-time.After(3 * time.Second):
		t.Fatal("reconciliation was not triggered")
	}
}
