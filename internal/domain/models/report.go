package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationLine is one origin's balance inside a reconciliation report.
type ReconciliationLine struct {
	Origin        OriginRef       `json:"origin"`
	Label         string          `json:"label"`
	NominalKg     decimal.Decimal `json:"nominal_kg"`
	AllocatedKg   decimal.Decimal `json:"allocated_kg"`
	AvailableKg   decimal.Decimal `json:"available_kg"`
	OverAllocated bool            `json:"over_allocated"`
}

// ReconciliationReport captures the availability of every origin at one instant.
type ReconciliationReport struct {
	GeneratedAt   time.Time            `json:"generated_at"`
	Lines         []ReconciliationLine `json:"lines"`
	OverAllocated int                  `json:"over_allocated"`
	CreatedAt     time.Time            `json:"created_at"`
}

// LineFromBalance flattens a computed balance into a report line.
func LineFromBalance(b OriginBalance) ReconciliationLine {
	return ReconciliationLine{
		Origin:        b.Origin.Ref,
		Label:         b.Origin.Label,
		NominalKg:     b.Origin.NominalKg,
		AllocatedKg:   b.AllocatedKg,
		AvailableKg:   b.AvailableKg,
		OverAllocated: b.OverAllocated(),
	}
}
