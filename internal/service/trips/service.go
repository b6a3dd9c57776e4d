package trips

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
	"github.com/mamadbah2/farmtrack/internal/repository"
)

// Admitter decides the status of a proposed trip.
type Admitter interface {
	DecideAdmission(ctx context.Context, fields models.AllocationFields, existing *models.Allocation) (models.Admission, error)
}

// Result is a persisted trip along with the admission that produced its status.
type Result struct {
	Trip      models.Allocation
	Admission models.Admission
}

// Service persists truck trips with their derived admission status.
type Service struct {
	store        repository.TripStore
	admitter     Admitter
	rejectExcess bool
	logger       *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRejectOverCapacity refuses writes whose admission is kgsError instead of
// persisting them flagged.
func WithRejectOverCapacity(reject bool) Option {
	return func(s *Service) { s.rejectExcess = reject }
}

// NewService constructs the trip write path.
func NewService(store repository.TripStore, admitter Admitter, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{store: store, admitter: admitter, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create decides admission for a new trip and persists it. When no status can
// be computed the trip is stored without one.
func (s *Service) Create(ctx context.Context, fields models.AllocationFields) (Result, error) {
	if err := fields.Validate(); err != nil {
		return Result{}, err
	}

	admission, err := s.admitter.DecideAdmission(ctx, fields, nil)
	if err != nil {
		return Result{}, fmt.Errorf("decide admission: %w", err)
	}
	if err := s.enforce(admission); err != nil {
		return Result{Admission: admission}, err
	}

	trip, err := s.store.CreateAllocation(ctx, fields, admission.Status)
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("trip created",
		zap.Int("trip_id", trip.ID),
		zap.String("status", string(admission.Status)))

	return Result{Trip: trip, Admission: admission}, nil
}

// Update changes an existing trip. The status is recomputed only when origin
// links or loaded kg are part of the update.
func (s *Service) Update(ctx context.Context, id int, fields models.AllocationFields) (Result, error) {
	if err := fields.Validate(); err != nil {
		return Result{}, err
	}

	existing, err := s.store.GetAllocation(ctx, id)
	if err != nil {
		return Result{}, err
	}

	var admission models.Admission
	if fields.TouchesAdmission() {
		admission, err = s.admitter.DecideAdmission(ctx, fields, &existing)
		if err != nil {
			return Result{}, fmt.Errorf("decide admission: %w", err)
		}
		if err := s.enforce(admission); err != nil {
			return Result{Admission: admission}, err
		}
	}

	trip, err := s.store.UpdateAllocation(ctx, id, fields, admission.Status)
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("trip updated",
		zap.Int("trip_id", trip.ID),
		zap.Bool("recomputed", fields.TouchesAdmission()),
		zap.String("status", string(trip.Status)))

	return Result{Trip: trip, Admission: admission}, nil
}

func (s *Service) enforce(admission models.Admission) error {
	if s.rejectExcess && admission.Status == models.StatusKgsError {
		return models.ErrOverCapacity
	}
	return nil
}
