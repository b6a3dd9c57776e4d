package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AllocationStatus is the derived admission outcome persisted on a truck trip.
// The empty value means no status could be computed.
type AllocationStatus string

const (
	StatusApplied  AllocationStatus = "applied"
	StatusKgsError AllocationStatus = "kgsError"
)

// Allocation is a truck trip claiming loaded kilograms against one origin.
type Allocation struct {
	ID         int
	HarvestIDs []int
	StockIDs   []int
	TruckIDs   []int
	LoadedKg   decimal.NullDecimal
	Status     AllocationStatus
}

// Origin resolves which single origin the trip references.
func (a Allocation) Origin() (OriginRef, bool) {
	return OriginFromLinks(a.HarvestIDs, a.StockIDs)
}

// Applied reports whether the trip counts against its origin's capacity.
func (a Allocation) Applied() bool {
	return a.Status == StatusApplied
}

// AllocationFields carries proposed trip values. A nil link slice means the
// key was not provided at all, while an empty non-nil slice clears the link.
type AllocationFields struct {
	HarvestIDs []int               `json:"harvest_ids"`
	StockIDs   []int               `json:"stock_ids"`
	TruckIDs   []int               `json:"truck_ids"`
	LoadedKg   decimal.NullDecimal `json:"loaded_kg"`
}

// TouchesOrigin reports whether any origin link key is present.
func (f AllocationFields) TouchesOrigin() bool {
	return f.HarvestIDs != nil || f.StockIDs != nil
}

// TouchesAdmission reports whether the fields affect the derived status.
func (f AllocationFields) TouchesAdmission() bool {
	return f.TouchesOrigin() || f.LoadedKg.Valid
}

// Validate rejects values that can never be persisted.
func (f AllocationFields) Validate() error {
	if f.LoadedKg.Valid && f.LoadedKg.Decimal.IsNegative() {
		return fmt.Errorf("%w: loaded_kg must not be negative", ErrInvalidInput)
	}
	for _, ids := range [][]int{f.HarvestIDs, f.StockIDs, f.TruckIDs} {
		for _, id := range ids {
			if id <= 0 {
				return fmt.Errorf("%w: linked ids must be positive", ErrInvalidInput)
			}
		}
	}
	return nil
}

// Admission is the outcome of an admission decision. A zero Status and a nil
// AvailableKg mean the decision was indeterminate.
type Admission struct {
	Status      AllocationStatus
	Origin      *OriginRef
	AvailableKg *decimal.Decimal
}

// Determinate reports whether a status could be computed.
func (a Admission) Determinate() bool {
	return a.Status != ""
}
