package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

// ResolveOrigin determines the single origin a proposed trip references.
//
// Each link key is merged on its own: a key present in the candidate replaces
// the existing record's links for that key, an absent key keeps them. The
// result is the origin the trip points at once the update is stored. A
// non-empty harvest link wins over any stock link.
func ResolveOrigin(fields models.AllocationFields, existing *models.Allocation) (models.OriginRef, bool) {
	harvestIDs, stockIDs := fields.HarvestIDs, fields.StockIDs
	if existing != nil {
		if harvestIDs == nil {
			harvestIDs = existing.HarvestIDs
		}
		if stockIDs == nil {
			stockIDs = existing.StockIDs
		}
	}
	return models.OriginFromLinks(harvestIDs, stockIDs)
}

// resolveQuantity prefers the proposed loaded kg and falls back to the stored one.
func resolveQuantity(fields models.AllocationFields, existing *models.Allocation) (decimal.Decimal, bool) {
	if fields.LoadedKg.Valid {
		return fields.LoadedKg.Decimal, true
	}
	if existing != nil && existing.LoadedKg.Valid {
		return existing.LoadedKg.Decimal, true
	}
	return decimal.Zero, false
}
