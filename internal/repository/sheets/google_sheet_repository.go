package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/farmtrack/internal/config"
	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

// Repository defines the export operations supported by the Google Sheets adapter.
type Repository interface {
	AppendReport(ctx context.Context, report models.ReconciliationReport) error
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	sheetRange    string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		sheetRange:    cfg.Range,
		logger:        logger,
	}, nil
}

// AppendReport writes one row per origin balance below the existing data.
func (r *GoogleSheetRepository) AppendReport(ctx context.Context, report models.ReconciliationReport) error {
	if r.sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}
	if len(report.Lines) == 0 {
		return nil
	}

	payload := &sheetsapi.ValueRange{Values: reportRows(report)}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, r.sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append report into range %s: %w", r.sheetRange, err)
	}

	r.logger.Debug("report appended to sheet",
		zap.String("range", r.sheetRange),
		zap.Int("rows", len(payload.Values)),
	)
	return nil
}

// reportRows lays out columns A:H as date, type, id, label, nominal,
// allocated, available, flag.
func reportRows(report models.ReconciliationReport) [][]interface{} {
	date := report.GeneratedAt.Format(time.DateTime)
	rows := make([][]interface{}, 0, len(report.Lines))
	for _, l := range report.Lines {
		flag := ""
		if l.OverAllocated {
			flag = "OVER"
		}
		rows = append(rows, []interface{}{
			date,
			string(l.Origin.Type),
			l.Origin.ID,
			l.Label,
			l.NominalKg.String(),
			l.AllocatedKg.String(),
			l.AvailableKg.String(),
			flag,
		})
	}
	return rows
}
