package sqlstore

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

// AddOrigin inserts a harvest lot or stock unit. Nominal quantities are owned
// by the farm records, so the ledger only ever reads them back.
func (s *Store) AddOrigin(ctx context.Context, originType models.OriginType, name string, nominalKg decimal.Decimal) (models.Origin, error) {
	var id int
	switch originType {
	case models.OriginHarvest:
		r := HarvestRow{Name: name, NominalKg: nominalKg}
		if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
			return models.Origin{}, fmt.Errorf("add harvest: %w", translate(err))
		}
		id = r.ID
	case models.OriginStock:
		r := StockRow{Name: name, NominalKg: nominalKg}
		if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
			return models.Origin{}, fmt.Errorf("add stock unit: %w", translate(err))
		}
		id = r.ID
	default:
		return models.Origin{}, fmt.Errorf("%w: unknown origin type %q", models.ErrInvalidInput, originType)
	}

	return models.Origin{Ref: models.OriginRef{Type: originType, ID: id}, Label: name, NominalKg: nominalKg}, nil
}
