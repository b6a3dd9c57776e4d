package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

// DecideAdmission classifies a proposed trip as applied or kgsError against the
// remaining capacity of its origin. existing is the persisted trip being edited,
// or nil for a new trip. The decision has no side effects.
func (s *Service) DecideAdmission(ctx context.Context, fields models.AllocationFields, existing *models.Allocation) (models.Admission, error) {
	ref, ok := ResolveOrigin(fields, existing)
	if !ok {
		return models.Admission{}, nil
	}

	proposed, ok := resolveQuantity(fields, existing)
	if !ok {
		return models.Admission{}, nil
	}

	available, err := s.AvailableQuantity(ctx, ref)
	if err != nil {
		return models.Admission{}, err
	}

	// The calculator summed every applied trip, including the one being
	// edited; give its previous contribution back.
	if existing != nil && existing.Applied() && existing.LoadedKg.Valid {
		if prev, ok := existing.Origin(); ok && prev == ref {
			available = available.Add(existing.LoadedKg.Decimal)
		}
	}

	status := models.StatusApplied
	if proposed.GreaterThan(available) {
		status = models.StatusKgsError
	}

	s.logger.Debug("admission decided",
		zap.Stringer("origin", ref),
		zap.Stringer("proposed_kg", proposed),
		zap.Stringer("available_kg", available),
		zap.String("status", string(status)))

	return models.Admission{Status: status, Origin: &ref, AvailableKg: &available}, nil
}

// ComputeAdmission loads the existing trip, when an id is given, and decides
// admission for the proposed fields.
func (s *Service) ComputeAdmission(ctx context.Context, fields models.AllocationFields, existingID *int) (models.Admission, error) {
	if err := fields.Validate(); err != nil {
		return models.Admission{}, err
	}

	var existing *models.Allocation
	if existingID != nil {
		trip, err := s.store.GetAllocation(ctx, *existingID)
		if err != nil {
			return models.Admission{}, fmt.Errorf("get trip %d: %w", *existingID, err)
		}
		existing = &trip
	}

	return s.DecideAdmission(ctx, fields, existing)
}
