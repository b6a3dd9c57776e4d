package handlers

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

// AdmissionRequest is the body of POST /api/admissions.
type AdmissionRequest struct {
	models.AllocationFields
	ExistingTripID *int `json:"existing_trip_id"`
}

// AdmissionResponse carries a null status and available_kg when indeterminate.
type AdmissionResponse struct {
	Status      *string           `json:"status"`
	Origin      *models.OriginRef `json:"origin,omitempty"`
	AvailableKg *float64          `json:"available_kg"`
}

// AvailabilityResponse is the available quantity of one origin.
type AvailabilityResponse struct {
	OriginType  models.OriginType `json:"origin_type"`
	OriginID    int               `json:"origin_id"`
	AvailableKg float64           `json:"available_kg"`
}

// BalanceResponse is one origin in an availability listing.
type BalanceResponse struct {
	OriginType    models.OriginType `json:"origin_type"`
	OriginID      int               `json:"origin_id"`
	Label         string            `json:"label"`
	NominalKg     float64           `json:"nominal_kg"`
	AllocatedKg   float64           `json:"allocated_kg"`
	AvailableKg   float64           `json:"available_kg"`
	OverAllocated bool              `json:"over_allocated"`
}

// TripResponse is a persisted truck trip together with its admission.
type TripResponse struct {
	ID         int               `json:"id"`
	HarvestIDs []int             `json:"harvest_ids"`
	StockIDs   []int             `json:"stock_ids"`
	TruckIDs   []int             `json:"truck_ids"`
	LoadedKg   *float64          `json:"loaded_kg"`
	Status     *string           `json:"status"`
	Admission  AdmissionResponse `json:"admission"`
}

// ReconciliationResponse summarizes a reconciliation run.
type ReconciliationResponse struct {
	GeneratedAt   string            `json:"generated_at"`
	OverAllocated int               `json:"over_allocated"`
	Lines         []BalanceResponse `json:"lines"`
}

func newAdmissionResponse(a models.Admission) AdmissionResponse {
	resp := AdmissionResponse{Origin: a.Origin}
	if a.Determinate() {
		status := string(a.Status)
		resp.Status = &status
	}
	if a.AvailableKg != nil {
		v := a.AvailableKg.InexactFloat64()
		resp.AvailableKg = &v
	}
	return resp
}

func newBalanceResponse(b models.OriginBalance) BalanceResponse {
	return newLineResponse(models.LineFromBalance(b))
}

func newLineResponse(l models.ReconciliationLine) BalanceResponse {
	return BalanceResponse{
		OriginType:    l.Origin.Type,
		OriginID:      l.Origin.ID,
		Label:         l.Label,
		NominalKg:     l.NominalKg.InexactFloat64(),
		AllocatedKg:   l.AllocatedKg.InexactFloat64(),
		AvailableKg:   l.AvailableKg.InexactFloat64(),
		OverAllocated: l.OverAllocated,
	}
}

func newTripResponse(trip models.Allocation, admission models.Admission) TripResponse {
	resp := TripResponse{
		ID:         trip.ID,
		HarvestIDs: nonNil(trip.HarvestIDs),
		StockIDs:   nonNil(trip.StockIDs),
		TruckIDs:   nonNil(trip.TruckIDs),
		LoadedKg:   nullableKg(trip.LoadedKg),
		Admission:  newAdmissionResponse(admission),
	}
	if trip.Status != "" {
		status := string(trip.Status)
		resp.Status = &status
	}
	return resp
}

func nullableKg(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	v := d.Decimal.InexactFloat64()
	return &v
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
