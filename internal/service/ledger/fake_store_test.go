package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

type fakeStore struct {
	mu          sync.Mutex
	origins     map[models.OriginRef]models.Origin
	allocations map[int]models.Allocation
	listErr     error
	calls       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		origins:     make(map[models.OriginRef]models.Origin),
		allocations: make(map[int]models.Allocation),
	}
}

func (f *fakeStore) addOrigin(t models.OriginType, id int, nominal int64) models.OriginRef {
	ref := models.OriginRef{Type: t, ID: id}
	f.origins[ref] = models.Origin{Ref: ref, NominalKg: decimal.NewFromInt(nominal)}
	return ref
}

func (f *fakeStore) addTrip(a models.Allocation) {
	f.allocations[a.ID] = a
}

func (f *fakeStore) GetOrigin(_ context.Context, ref models.OriginRef) (models.Origin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	o, ok := f.origins[ref]
	if !ok {
		return models.Origin{}, models.ErrNotFound
	}
	return o, nil
}

func (f *fakeStore) ListOrigins(_ context.Context, t models.OriginType) ([]models.Origin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Origin
	for ref, o := range f.origins {
		if ref.Type == t {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) ListApplicableAllocations(_ context.Context, _ models.OriginRef) ([]models.Allocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Allocation, 0, len(f.allocations))
	for _, a := range f.allocations {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) GetAllocation(_ context.Context, id int) (models.Allocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.allocations[id]
	if !ok {
		return models.Allocation{}, models.ErrNotFound
	}
	return a, nil
}

func kg(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}
