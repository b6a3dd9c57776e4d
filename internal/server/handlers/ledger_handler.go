package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

// LedgerService is the read side of the origin availability ledger.
type LedgerService interface {
	QueryAvailableQuantity(ctx context.Context, originType models.OriginType, originID int) (decimal.Decimal, error)
	ListAvailability(ctx context.Context, originType models.OriginType) ([]models.OriginBalance, error)
	ComputeAdmission(ctx context.Context, fields models.AllocationFields, existingID *int) (models.Admission, error)
}

// LedgerHandler exposes availability queries and admission previews.
type LedgerHandler struct {
	svc    LedgerService
	logger *zap.Logger
}

// NewLedgerHandler constructs the HTTP handler adapter.
func NewLedgerHandler(svc LedgerService, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{svc: svc, logger: logger}
}

// Availability returns the available kg of a single origin.
func (h *LedgerHandler) Availability(c *gin.Context) {
	originType, err := models.ParseOriginType(c.Param("type"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	originID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, fmt.Errorf("%w: origin id must be an integer", models.ErrInvalidInput))
		return
	}

	available, err := h.svc.QueryAvailableQuantity(c.Request.Context(), originType, originID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, AvailabilityResponse{
		OriginType:  originType,
		OriginID:    originID,
		AvailableKg: available.InexactFloat64(),
	})
}

// ListAvailability returns the balance of every origin of a type.
func (h *LedgerHandler) ListAvailability(c *gin.Context) {
	originType, err := models.ParseOriginType(c.Param("type"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	balances, err := h.svc.ListAvailability(c.Request.Context(), originType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	out := make([]BalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, newBalanceResponse(b))
	}
	c.JSON(http.StatusOK, gin.H{"origins": out})
}

// Admission previews the status a proposed trip would receive without writing it.
func (h *LedgerHandler) Admission(c *gin.Context) {
	var req AdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	admission, err := h.svc.ComputeAdmission(c.Request.Context(), req.AllocationFields, req.ExistingTripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, newAdmissionResponse(admission))
}
