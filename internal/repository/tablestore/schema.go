package tablestore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/farmtrack/internal/config"
	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

// row is a table row keyed by human-readable column names.
type row map[string]json.RawMessage

// link is one entry of a link-to-table column.
type link struct {
	ID    int    `json:"id"`
	Value string `json:"value,omitempty"`
}

// Schema translates between named columns and the ledger model.
type Schema struct {
	fields config.FieldNames
}

// NewSchema builds a schema from configured column names.
func NewSchema(fields config.FieldNames) Schema {
	return Schema{fields: fields}
}

func (s Schema) originColumns(t models.OriginType) (label, nominal string) {
	if t == models.OriginStock {
		return s.fields.StockLabel, s.fields.StockNominal
	}
	return s.fields.HarvestLabel, s.fields.HarvestNominal
}

func (s Schema) tripLinkColumn(t models.OriginType) string {
	if t == models.OriginStock {
		return s.fields.TripStock
	}
	return s.fields.TripHarvest
}

// decodeOrigin fails when the nominal column is absent from the row, which
// means the configured column name does not exist in the table. An empty cell
// decodes as zero kg and is reported through the returned flag.
func (s Schema) decodeOrigin(t models.OriginType, r row) (models.Origin, bool, error) {
	id, err := r.id()
	if err != nil {
		return models.Origin{}, false, err
	}

	labelCol, nominalCol := s.originColumns(t)
	if _, ok := r[nominalCol]; !ok {
		return models.Origin{}, false, fmt.Errorf("%s row %d has no column %q", t, id, nominalCol)
	}
	nominal, err := r.decimal(nominalCol)
	if err != nil {
		return models.Origin{}, false, err
	}

	return models.Origin{
		Ref:       models.OriginRef{Type: t, ID: id},
		Label:     r.text(labelCol),
		NominalKg: nominal.Decimal,
	}, nominal.Valid, nil
}

func (s Schema) decodeAllocation(r row) (models.Allocation, error) {
	id, err := r.id()
	if err != nil {
		return models.Allocation{}, err
	}

	loaded, err := r.decimal(s.fields.TripLoaded)
	if err != nil {
		return models.Allocation{}, err
	}

	return models.Allocation{
		ID:         id,
		HarvestIDs: r.links(s.fields.TripHarvest),
		StockIDs:   r.links(s.fields.TripStock),
		TruckIDs:   r.links(s.fields.TripTruck),
		LoadedKg:   loaded,
		Status:     models.AllocationStatus(r.text(s.fields.TripStatus)),
	}, nil
}

// encodeAllocation produces a write payload holding only the provided fields.
func (s Schema) encodeAllocation(fields models.AllocationFields, status models.AllocationStatus) map[string]any {
	payload := make(map[string]any)
	if fields.HarvestIDs != nil {
		payload[s.fields.TripHarvest] = firstLink(fields.HarvestIDs)
	}
	if fields.StockIDs != nil {
		payload[s.fields.TripStock] = firstLink(fields.StockIDs)
	}
	if fields.TruckIDs != nil && s.fields.TripTruck != "" {
		payload[s.fields.TripTruck] = fields.TruckIDs
	}
	if fields.LoadedKg.Valid {
		payload[s.fields.TripLoaded] = fields.LoadedKg.Decimal.String()
	}
	if status != "" {
		payload[s.fields.TripStatus] = string(status)
	}
	return payload
}

// firstLink keeps only the significant first id of a link list.
func firstLink(ids []int) []int {
	if len(ids) == 0 {
		return []int{}
	}
	return ids[:1]
}

func (r row) id() (int, error) {
	raw, ok := r["id"]
	if !ok {
		return 0, fmt.Errorf("row without id")
	}
	var id int
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, fmt.Errorf("decode row id: %w", err)
	}
	return id, nil
}

func (r row) decimal(column string) (decimal.NullDecimal, error) {
	raw, ok := r[column]
	if !ok || len(raw) == 0 || string(raw) == `""` {
		return decimal.NullDecimal{}, nil
	}
	var value decimal.NullDecimal
	if err := json.Unmarshal(raw, &value); err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("decode column %q: %w", column, err)
	}
	return value, nil
}

// links tolerates both [{"id":1,"value":"x"}] and plain [1] encodings.
func (r row) links(column string) []int {
	raw, ok := r[column]
	if !ok {
		return nil
	}

	var entries []link
	if err := json.Unmarshal(raw, &entries); err == nil {
		ids := make([]int, 0, len(entries))
		for _, e := range entries {
			ids = append(ids, e.ID)
		}
		return ids
	}

	var ids []int
	if err := json.Unmarshal(raw, &ids); err == nil {
		return ids
	}
	return nil
}

// text reads a text or single-select column.
func (r row) text(column string) string {
	raw, ok := r[column]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var option struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &option); err == nil {
		return strings.TrimSpace(option.Value)
	}
	return ""
}
