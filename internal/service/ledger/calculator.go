package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

// AvailableQuantity returns the origin's nominal kg minus the kg already loaded
// by applied trips. The result is never clamped, so a negative value exposes an
// over-allocated origin.
func (s *Service) AvailableQuantity(ctx context.Context, ref models.OriginRef) (decimal.Decimal, error) {
	balance, err := s.balance(ctx, ref)
	if err != nil {
		return decimal.Zero, err
	}
	return balance.AvailableKg, nil
}

// QueryAvailableQuantity is the inbound entry point used by HTTP handlers.
func (s *Service) QueryAvailableQuantity(ctx context.Context, originType models.OriginType, originID int) (decimal.Decimal, error) {
	if originID <= 0 {
		return decimal.Zero, fmt.Errorf("%w: origin id must be positive", models.ErrInvalidInput)
	}
	return s.AvailableQuantity(ctx, models.OriginRef{Type: originType, ID: originID})
}

// ListAvailability computes the balance of every origin of the given type.
func (s *Service) ListAvailability(ctx context.Context, originType models.OriginType) ([]models.OriginBalance, error) {
	origins, err := s.store.ListOrigins(ctx, originType)
	if err != nil {
		return nil, fmt.Errorf("list %s origins: %w", originType, err)
	}

	balances := make([]models.OriginBalance, len(origins))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, origin := range origins {
		g.Go(func() error {
			allocations, err := s.store.ListApplicableAllocations(gctx, origin.Ref)
			if err != nil {
				return fmt.Errorf("list allocations for %s: %w", origin.Ref, err)
			}
			balances[i] = balanceOf(origin, allocations)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return balances, nil
}

// balance fetches the origin and its allocations concurrently and joins them.
func (s *Service) balance(ctx context.Context, ref models.OriginRef) (models.OriginBalance, error) {
	var (
		origin      models.Origin
		allocations []models.Allocation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o, err := s.store.GetOrigin(gctx, ref)
		if err != nil {
			return err
		}
		origin = o
		return nil
	})
	g.Go(func() error {
		a, err := s.store.ListApplicableAllocations(gctx, ref)
		if err != nil {
			return fmt.Errorf("list allocations for %s: %w", ref, err)
		}
		allocations = a
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.OriginBalance{}, err
	}

	balance := balanceOf(origin, allocations)
	s.logger.Debug("origin balance computed",
		zap.Stringer("origin", ref),
		zap.Stringer("nominal_kg", origin.NominalKg),
		zap.Stringer("allocated_kg", balance.AllocatedKg),
		zap.Int("allocations", len(allocations)))

	return balance, nil
}

func balanceOf(origin models.Origin, allocations []models.Allocation) models.OriginBalance {
	allocated := allocatedTo(origin.Ref, allocations)
	return models.OriginBalance{
		Origin:      origin,
		AllocatedKg: allocated,
		AvailableKg: origin.NominalKg.Sub(allocated),
	}
}

// allocatedTo sums loaded kg of applied trips whose resolved origin is ref.
// kgsError trips do not count against capacity.
func allocatedTo(ref models.OriginRef, allocations []models.Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocations {
		if !a.Applied() || !a.LoadedKg.Valid {
			continue
		}
		if origin, ok := a.Origin(); !ok || origin != ref {
			continue
		}
		total = total.Add(a.LoadedKg.Decimal)
	}
	return total
}
