package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mamadbah2/farmtrack/internal/config"
	"github.com/mamadbah2/farmtrack/internal/domain/models"
	"github.com/mamadbah2/farmtrack/internal/repository"
)

// HarvestRow is a harvest lot with its harvested kilograms.
type HarvestRow struct {
	ID        int             `gorm:"primaryKey"`
	Name      string          `gorm:"size:120"`
	NominalKg decimal.Decimal `gorm:"type:decimal(20,3);not null"`
}

func (HarvestRow) TableName() string { return "harvests" }

// StockRow is a stock unit with its stored kilograms.
type StockRow struct {
	ID        int             `gorm:"primaryKey"`
	Name      string          `gorm:"size:120"`
	NominalKg decimal.Decimal `gorm:"type:decimal(20,3);not null"`
}

func (StockRow) TableName() string { return "stock_units" }

// TripRow is a truck trip. Harvest and stock links are independent columns;
// the ledger resolves which one applies.
type TripRow struct {
	ID        int                 `gorm:"primaryKey"`
	HarvestID *int                `gorm:"index"`
	StockID   *int                `gorm:"index"`
	TruckID   *int                `gorm:"index"`
	LoadedKg  decimal.NullDecimal `gorm:"type:decimal(20,3)"`
	Status    *string             `gorm:"size:16;index"`
}

func (TripRow) TableName() string { return "truck_trips" }

// Store implements the quantity store on a SQL database through gorm.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ repository.TripStore = (*Store)(nil)

// Open connects to the configured driver and migrates the ledger tables.
// PreferSimpleProtocol keeps postgres usable behind connection poolers.
func Open(driver, dsn string, log *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	case config.DriverPostgres:
		dialector = postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true})
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == config.DriverSQLite {
		// Every connection to ":memory:" is a distinct database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&HarvestRow{}, &StockRow{}, &TripRow{}); err != nil {
		return nil, fmt.Errorf("migrate ledger tables: %w", err)
	}

	return New(db, log), nil
}

// New wraps an already opened gorm handle.
func New(db *gorm.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, logger: log}
}

// DB exposes the gorm handle for seeding and health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetOrigin loads a harvest lot or stock unit.
func (s *Store) GetOrigin(ctx context.Context, ref models.OriginRef) (models.Origin, error) {
	switch ref.Type {
	case models.OriginHarvest:
		var r HarvestRow
		if err := s.db.WithContext(ctx).First(&r, ref.ID).Error; err != nil {
			return models.Origin{}, fmt.Errorf("get origin %s: %w", ref, translate(err))
		}
		return models.Origin{Ref: ref, Label: r.Name, NominalKg: r.NominalKg}, nil
	case models.OriginStock:
		var r StockRow
		if err := s.db.WithContext(ctx).First(&r, ref.ID).Error; err != nil {
			return models.Origin{}, fmt.Errorf("get origin %s: %w", ref, translate(err))
		}
		return models.Origin{Ref: ref, Label: r.Name, NominalKg: r.NominalKg}, nil
	default:
		return models.Origin{}, fmt.Errorf("%w: unknown origin type %q", models.ErrInvalidInput, ref.Type)
	}
}

// ListOrigins loads every origin of the given type ordered by id.
func (s *Store) ListOrigins(ctx context.Context, originType models.OriginType) ([]models.Origin, error) {
	var origins []models.Origin

	switch originType {
	case models.OriginHarvest:
		var rows []HarvestRow
		if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("list harvests: %w", translate(err))
		}
		for _, r := range rows {
			origins = append(origins, models.Origin{Ref: models.OriginRef{Type: originType, ID: r.ID}, Label: r.Name, NominalKg: r.NominalKg})
		}
	case models.OriginStock:
		var rows []StockRow
		if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("list stock units: %w", translate(err))
		}
		for _, r := range rows {
			origins = append(origins, models.Origin{Ref: models.OriginRef{Type: originType, ID: r.ID}, Label: r.Name, NominalKg: r.NominalKg})
		}
	default:
		return nil, fmt.Errorf("%w: unknown origin type %q", models.ErrInvalidInput, originType)
	}

	return origins, nil
}

// ListApplicableAllocations returns applied trips linked to the origin's column.
func (s *Store) ListApplicableAllocations(ctx context.Context, ref models.OriginRef) ([]models.Allocation, error) {
	column := "harvest_id"
	if ref.Type == models.OriginStock {
		column = "stock_id"
	}

	var rows []TripRow
	if err := s.db.WithContext(ctx).
		Where(column+" = ?", ref.ID).
		Where("status = ?", string(models.StatusApplied)).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list trips for %s: %w", ref, translate(err))
	}

	allocations := make([]models.Allocation, 0, len(rows))
	for _, r := range rows {
		allocations = append(allocations, r.toAllocation())
	}
	return allocations, nil
}

// GetAllocation loads a single truck trip.
func (s *Store) GetAllocation(ctx context.Context, id int) (models.Allocation, error) {
	var r TripRow
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return models.Allocation{}, fmt.Errorf("get trip %d: %w", id, translate(err))
	}
	return r.toAllocation(), nil
}

// CreateAllocation inserts a truck trip.
func (s *Store) CreateAllocation(ctx context.Context, fields models.AllocationFields, status models.AllocationStatus) (models.Allocation, error) {
	var r TripRow
	r.apply(fields, status)
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return models.Allocation{}, fmt.Errorf("create trip: %w", translate(err))
	}
	s.logger.Debug("trip created", zap.Int("trip_id", r.ID))
	return r.toAllocation(), nil
}

// UpdateAllocation changes only the provided columns of a truck trip.
func (s *Store) UpdateAllocation(ctx context.Context, id int, fields models.AllocationFields, status models.AllocationStatus) (models.Allocation, error) {
	var r TripRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, id).Error; err != nil {
			return err
		}
		r.apply(fields, status)
		return tx.Save(&r).Error
	})
	if err != nil {
		return models.Allocation{}, fmt.Errorf("update trip %d: %w", id, translate(err))
	}
	return r.toAllocation(), nil
}

func (r *TripRow) apply(fields models.AllocationFields, status models.AllocationStatus) {
	if fields.HarvestIDs != nil {
		r.HarvestID = firstID(fields.HarvestIDs)
	}
	if fields.StockIDs != nil {
		r.StockID = firstID(fields.StockIDs)
	}
	if fields.TruckIDs != nil {
		r.TruckID = firstID(fields.TruckIDs)
	}
	if fields.LoadedKg.Valid {
		r.LoadedKg = fields.LoadedKg
	}
	if status != "" {
		value := string(status)
		r.Status = &value
	}
}

func (r TripRow) toAllocation() models.Allocation {
	a := models.Allocation{
		ID:         r.ID,
		HarvestIDs: idList(r.HarvestID),
		StockIDs:   idList(r.StockID),
		TruckIDs:   idList(r.TruckID),
		LoadedKg:   r.LoadedKg,
	}
	if r.Status != nil {
		a.Status = models.AllocationStatus(*r.Status)
	}
	return a
}

func firstID(ids []int) *int {
	if len(ids) == 0 {
		return nil
	}
	id := ids[0]
	return &id
}

func idList(id *int) []int {
	if id == nil {
		return nil
	}
	return []int{*id}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}
	return fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
}
