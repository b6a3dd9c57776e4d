package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmtrack/internal/server/handlers"
)

const requestIDHeader = "X-Request-ID"

// Handlers groups the HTTP adapters mounted by the router.
type Handlers struct {
	Ledger         *handlers.LedgerHandler
	Trips          *handlers.TripHandler
	Reconciliation *handlers.ReconciliationHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	if h.Ledger != nil {
		api.GET("/origins/:type/availability", h.Ledger.ListAvailability)
		api.GET("/origins/:type/:id/availability", h.Ledger.Availability)
		api.POST("/admissions", h.Ledger.Admission)
	}
	if h.Trips != nil {
		api.POST("/trips", h.Trips.Create)
		api.PATCH("/trips/:id", h.Trips.Update)
	}
	if h.Reconciliation != nil {
		api.POST("/reconciliations", h.Reconciliation.Run)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
