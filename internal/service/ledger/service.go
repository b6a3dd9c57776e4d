package ledger

import (
	"go.uber.org/zap"

	"github.com/mamadbah2/farmtrack/internal/repository"
)

// listConcurrency bounds parallel per-origin computations when listing availability.
const listConcurrency = 4

// Service computes origin availability and admission decisions for truck trips.
// It holds no state between calls; every decision reads the store afresh.
type Service struct {
	store  repository.QuantityStore
	logger *zap.Logger
}

// NewService wires a ledger service over the provided store.
func NewService(store repository.QuantityStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}
