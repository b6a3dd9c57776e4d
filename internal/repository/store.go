package repository

import (
	"context"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

// QuantityStore is the read side of the backing tabular store the ledger depends on.
type QuantityStore interface {
	GetOrigin(ctx context.Context, ref models.OriginRef) (models.Origin, error)
	ListOrigins(ctx context.Context, originType models.OriginType) ([]models.Origin, error)
	// ListApplicableAllocations returns the trips that may count against the
	// origin. Callers filter on status and resolved origin themselves.
	ListApplicableAllocations(ctx context.Context, ref models.OriginRef) ([]models.Allocation, error)
	GetAllocation(ctx context.Context, id int) (models.Allocation, error)
}

// TripStore persists truck trips together with their derived status.
// An empty status means the status column is left untouched.
type TripStore interface {
	QuantityStore
	CreateAllocation(ctx context.Context, fields models.AllocationFields, status models.AllocationStatus) (models.Allocation, error)
	UpdateAllocation(ctx context.Context, id int, fields models.AllocationFields, status models.AllocationStatus) (models.Allocation, error)
}
