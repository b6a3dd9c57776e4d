package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OriginType enumerates the kinds of records that can supply kilograms to truck trips.
type OriginType string

const (
	OriginHarvest OriginType = "harvest"
	OriginStock   OriginType = "stock"
)

// OriginTypes lists every supported origin type in resolution priority order.
var OriginTypes = []OriginType{OriginHarvest, OriginStock}

// ParseOriginType normalizes user input such as "Harvest" or "stocks".
func ParseOriginType(value string) (OriginType, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(value)), "s") {
	case string(OriginHarvest), "harvest lot":
		return OriginHarvest, nil
	case string(OriginStock), "stock unit":
		return OriginStock, nil
	default:
		return "", fmt.Errorf("%w: unknown origin type %q", ErrInvalidInput, value)
	}
}

// OriginRef identifies a single origin record.
type OriginRef struct {
	Type OriginType `json:"origin_type"`
	ID   int        `json:"origin_id"`
}

func (r OriginRef) String() string {
	return fmt.Sprintf("%s#%d", r.Type, r.ID)
}

// Origin is a harvest lot or stock unit with its nominal produced/stored quantity.
type Origin struct {
	Ref       OriginRef
	Label     string
	NominalKg decimal.Decimal
}

// OriginBalance is the availability of one origin at the moment it was computed.
type OriginBalance struct {
	Origin      Origin
	AllocatedKg decimal.Decimal
	AvailableKg decimal.Decimal
}

// OverAllocated reports whether applied trips exceed the nominal quantity.
func (b OriginBalance) OverAllocated() bool {
	return b.AvailableKg.IsNegative()
}

// OriginFromLinks applies the harvest-first rule to a pair of link lists.
// Only the first linked id of a list is significant.
func OriginFromLinks(harvestIDs, stockIDs []int) (OriginRef, bool) {
	if len(harvestIDs) > 0 {
		return OriginRef{Type: OriginHarvest, ID: harvestIDs[0]}, true
	}
	if len(stockIDs) > 0 {
		return OriginRef{Type: OriginStock, ID: stockIDs[0]}, true
	}
	return OriginRef{}, false
}
