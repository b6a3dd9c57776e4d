package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

// Reconciler runs a reconciliation on demand.
type Reconciler interface {
	Run(ctx context.Context, now time.Time) (models.ReconciliationReport, error)
}

// ReconciliationHandler triggers reconciliation runs.
type ReconciliationHandler struct {
	svc    Reconciler
	logger *zap.Logger
}

// NewReconciliationHandler constructs the HTTP handler adapter.
func NewReconciliationHandler(svc Reconciler, logger *zap.Logger) *ReconciliationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationHandler{svc: svc, logger: logger}
}

// Run builds a report now. A failing sink still returns the report with a warning.
func (h *ReconciliationHandler) Run(c *gin.Context) {
	report, err := h.svc.Run(c.Request.Context(), time.Now().UTC())
	if err != nil && report.GeneratedAt.IsZero() {
		respondError(c, h.logger, err)
		return
	}

	resp := ReconciliationResponse{
		GeneratedAt:   report.GeneratedAt.Format(time.RFC3339),
		OverAllocated: report.OverAllocated,
		Lines:         make([]BalanceResponse, 0, len(report.Lines)),
	}
	for _, l := range report.Lines {
		resp.Lines = append(resp.Lines, newLineResponse(l))
	}

	if err != nil {
		h.logger.Warn("reconciliation delivered partially", zap.Error(err))
		c.JSON(http.StatusAccepted, gin.H{"report": resp, "warning": "one or more report sinks failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": resp})
}
