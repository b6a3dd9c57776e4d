package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

type stubLedger struct {
	balances map[models.OriginType][]models.OriginBalance
	err      error
}

func (s stubLedger) ListAvailability(_ context.Context, t models.OriginType) ([]models.OriginBalance, error) {
	return s.balances[t], s.err
}

type recordingSink struct {
	reports []models.ReconciliationReport
	alerts  []string
	err     error
}

func (r *recordingSink) SaveReconciliationReport(_ context.Context, report models.ReconciliationReport) error {
	r.reports = append(r.reports, report)
	return r.err
}

func (r *recordingSink) AppendReport(_ context.Context, report models.ReconciliationReport) error {
	r.reports = append(r.reports, report)
	return r.err
}

func (r *recordingSink) SendAlert(_ context.Context, body string) error {
	r.alerts = append(r.alerts, body)
	return r.err
}

func balance(t models.OriginType, id int, label string, nominal, allocated int64) models.OriginBalance {
	return models.OriginBalance{
		Origin: models.Origin{
			Ref:       models.OriginRef{Type: t, ID: id},
			Label:     label,
			NominalKg: decimal.NewFromInt(nominal),
		},
		AllocatedKg: decimal.NewFromInt(allocated),
		AvailableKg: decimal.NewFromInt(nominal - allocated),
	}
}

func testLedger() stubLedger {
	return stubLedger{balances: map[models.OriginType][]models.OriginBalance{
		models.OriginHarvest: {balance(models.OriginHarvest, 1, "North field", 100, 60)},
		models.OriginStock:   {balance(models.OriginStock, 5, "Silo", 50, 60)},
	}}
}

var runAt = time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)

func TestRun_DeliversToEverySink(t *testing.T) {
	archive, exporter, alerter := &recordingSink{}, &recordingSink{}, &recordingSink{}
	svc := NewService(testLedger(), nil, WithArchive(archive), WithExporter(exporter), WithAlerter(alerter))

	report, err := svc.Run(context.Background(), runAt)
	require.NoError(t, err)

	require.Len(t, report.Lines, 2)
	assert.Equal(t, models.OriginHarvest, report.Lines[0].Origin.Type)
	assert.Equal(t, 1, report.OverAllocated)
	assert.True(t, report.Lines[1].OverAllocated)
	assert.Equal(t, runAt, report.GeneratedAt)

	assert.Len(t, archive.reports, 1)
	assert.Len(t, exporter.reports, 1)
	require.Len(t, alerter.alerts, 1)
	assert.Equal(t, "Reconciliation 2026-06-01 20:00: 1 origin(s) over-allocated.\n- Silo (stock#5): 10 kg over", alerter.alerts[0])
}

func TestRun_NoAlertWhenBalanced(t *testing.T) {
	alerter := &recordingSink{}
	ledger := stubLedger{balances: map[models.OriginType][]models.OriginBalance{
		models.OriginHarvest: {balance(models.OriginHarvest, 1, "", 100, 100)},
	}}

	report, err := NewService(ledger, nil, WithAlerter(alerter)).Run(context.Background(), runAt)
	require.NoError(t, err)
	assert.Zero(t, report.OverAllocated)
	assert.Empty(t, alerter.alerts)
}

func TestRun_SinkFailureDoesNotStopOthers(t *testing.T) {
	archive := &recordingSink{err: errors.New("mongo down")}
	exporter := &recordingSink{}
	svc := NewService(testLedger(), nil, WithArchive(archive), WithExporter(exporter))

	report, err := svc.Run(context.Background(), runAt)
	assert.ErrorContains(t, err, "archive report: mongo down")
	assert.Len(t, report.Lines, 2)
	assert.Len(t, exporter.reports, 1)
}

func TestRun_LedgerFailure(t *testing.T) {
	archive := &recordingSink{}
	ledger := stubLedger{err: models.ErrStoreUnavailable}

	_, err := NewService(ledger, nil, WithArchive(archive)).Run(context.Background(), runAt)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.Empty(t, archive.reports)
}

func TestFormatAlert_FallsBackToRef(t *testing.T) {
	report := models.ReconciliationReport{
		GeneratedAt:   runAt,
		OverAllocated: 1,
		Lines: []models.ReconciliationLine{{
			Origin:        models.OriginRef{Type: models.OriginHarvest, ID: 9},
			AvailableKg:   decimal.RequireFromString("-0.5"),
			OverAllocated: true,
		}},
	}
	assert.Contains(t, FormatAlert(report), "- harvest#9 (harvest#9): 0.5 kg over")
}
