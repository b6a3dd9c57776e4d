package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
	"github.com/mamadbah2/farmtrack/internal/service/trips"
)

// TripService persists truck trips with a derived status.
type TripService interface {
	Create(ctx context.Context, fields models.AllocationFields) (trips.Result, error)
	Update(ctx context.Context, id int, fields models.AllocationFields) (trips.Result, error)
}

// TripHandler handles truck-trip writes.
type TripHandler struct {
	svc    TripService
	logger *zap.Logger
}

// NewTripHandler constructs the HTTP handler adapter.
func NewTripHandler(svc TripService, logger *zap.Logger) *TripHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TripHandler{svc: svc, logger: logger}
}

// Create records a new trip.
func (h *TripHandler) Create(c *gin.Context) {
	var fields models.AllocationFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	res, err := h.svc.Create(c.Request.Context(), fields)
	if err != nil {
		h.respondWrite(c, res, err)
		return
	}

	c.JSON(http.StatusCreated, newTripResponse(res.Trip, res.Admission))
}

// Update applies a partial change to an existing trip.
func (h *TripHandler) Update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		respondError(c, h.logger, fmt.Errorf("%w: trip id must be a positive integer", models.ErrInvalidInput))
		return
	}

	var fields models.AllocationFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	res, err := h.svc.Update(c.Request.Context(), id, fields)
	if err != nil {
		h.respondWrite(c, res, err)
		return
	}

	c.JSON(http.StatusOK, newTripResponse(res.Trip, res.Admission))
}

// respondWrite includes the refused admission when a write exceeds capacity.
func (h *TripHandler) respondWrite(c *gin.Context, res trips.Result, err error) {
	if errors.Is(err, models.ErrOverCapacity) && res.Admission.Determinate() {
		h.logger.Info("trip refused", zap.Error(err), zap.String("status", string(res.Admission.Status)))
		c.JSON(http.StatusConflict, gin.H{
			"error":     err.Error(),
			"admission": newAdmissionResponse(res.Admission),
		})
		return
	}
	respondError(c, h.logger, err)
}
