package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

const dateLayout = "2006-01-02 15:04"

// Ledger lists per-origin balances.
type Ledger interface {
	ListAvailability(ctx context.Context, originType models.OriginType) ([]models.OriginBalance, error)
}

// Archive persists reports for later auditing.
type Archive interface {
	SaveReconciliationReport(ctx context.Context, report models.ReconciliationReport) error
}

// Exporter publishes reports to a shared spreadsheet.
type Exporter interface {
	AppendReport(ctx context.Context, report models.ReconciliationReport) error
}

// Alerter notifies an operator about over-allocated origins.
type Alerter interface {
	SendAlert(ctx context.Context, body string) error
}

// Service builds reconciliation reports and fans them out to the configured sinks.
type Service struct {
	ledger   Ledger
	archive  Archive
	exporter Exporter
	alerter  Alerter
	logger   *zap.Logger
}

// Option attaches an optional sink to the Service.
type Option func(*Service)

// WithArchive stores every report.
func WithArchive(a Archive) Option { return func(s *Service) { s.archive = a } }

// WithExporter appends every report to a spreadsheet.
func WithExporter(e Exporter) Option { return func(s *Service) { s.exporter = e } }

// WithAlerter sends a message when at least one origin is over-allocated.
func WithAlerter(a Alerter) Option { return func(s *Service) { s.alerter = a } }

// NewService wires a new reconciliation service instance.
func NewService(ledger Ledger, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{ledger: ledger, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run computes balances for every origin and delivers the report. Sinks run
// even when an earlier one fails; the first sink error is returned together
// with the report.
func (s *Service) Run(ctx context.Context, now time.Time) (models.ReconciliationReport, error) {
	report, err := s.Build(ctx, now)
	if err != nil {
		return models.ReconciliationReport{}, err
	}

	var errs []error
	if s.archive != nil {
		if err := s.archive.SaveReconciliationReport(ctx, report); err != nil {
			s.logger.Error("failed to archive reconciliation report", zap.Error(err))
			errs = append(errs, fmt.Errorf("archive report: %w", err))
		}
	}
	if s.exporter != nil {
		if err := s.exporter.AppendReport(ctx, report); err != nil {
			s.logger.Error("failed to export reconciliation report", zap.Error(err))
			errs = append(errs, fmt.Errorf("export report: %w", err))
		}
	}
	if s.alerter != nil && report.OverAllocated > 0 {
		if err := s.alerter.SendAlert(ctx, FormatAlert(report)); err != nil {
			s.logger.Error("failed to send over-allocation alert", zap.Error(err))
			errs = append(errs, fmt.Errorf("send alert: %w", err))
		}
	}

	s.logger.Info("reconciliation completed",
		zap.Int("origins", len(report.Lines)),
		zap.Int("over_allocated", report.OverAllocated),
	)

	if len(errs) > 0 {
		return report, errs[0]
	}
	return report, nil
}

// Build computes the report without delivering it.
func (s *Service) Build(ctx context.Context, now time.Time) (models.ReconciliationReport, error) {
	report := models.ReconciliationReport{
		GeneratedAt: now,
		CreatedAt:   time.Now().UTC(),
	}

	for _, t := range models.OriginTypes {
		balances, err := s.ledger.ListAvailability(ctx, t)
		if err != nil {
			return models.ReconciliationReport{}, fmt.Errorf("list %s availability: %w", t, err)
		}
		for _, b := range balances {
			line := models.LineFromBalance(b)
			if line.OverAllocated {
				report.OverAllocated++
			}
			report.Lines = append(report.Lines, line)
		}
	}

	return report, nil
}

// FormatAlert renders the over-allocated origins of a report as a short text message.
func FormatAlert(report models.ReconciliationReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reconciliation %s: %d origin(s) over-allocated.", report.GeneratedAt.Format(dateLayout), report.OverAllocated)
	for _, l := range report.Lines {
		if !l.OverAllocated {
			continue
		}
		label := l.Label
		if label == "" {
			label = l.Origin.String()
		}
		fmt.Fprintf(&b, "\n- %s (%s): %s kg over", label, l.Origin, l.AvailableKg.Neg().String())
	}
	return b.String()
}
