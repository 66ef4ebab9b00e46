package store

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"civreg/internal/record/models"
	id "civreg/pkg/domain"
	"civreg/pkg/requestcontext"
)

// InMemoryStore keeps records in process memory. It enforces the same
// uniqueness and numbering rules as the PostgreSQL store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.RecordID]models.Record
	seq     int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.RecordID]models.Record)}
}

func (s *InMemoryStore) Create(ctx context.Context, r models.Record) (models.Record, error) {
	if err := validate(r); err != nil {
		return models.Record{}, err
	}
	now := requestcontext.Now(ctx).UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := findExact(s.all(), r.Tuple(), id.RecordID{}); ok {
		return models.Record{}, duplicateRejection(existing)
	}
	s.seq++
	r.ID = id.NewRecordID()
	r.RegistryNumber = FormatRegistryNumber(s.seq)
	r.RegistrationDate = now.Format(models.DateLayout)
	r.CreatedAt = now
	r.UpdatedAt = now
	s.records[r.ID] = r
	return r, nil
}

func (s *InMemoryStore) Update(ctx context.Context, recordID id.RecordID, r models.Record) (models.Record, error) {
	if err := validate(r); err != nil {
		return models.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[recordID]
	if !ok {
		return models.Record{}, ErrNotFound
	}
	if existing, ok := findExact(s.all(), r.Tuple(), recordID); ok {
		return models.Record{}, duplicateRejection(existing)
	}
	r.ID = current.ID
	r.RegistryNumber = current.RegistryNumber
	r.RegistrationDate = current.RegistrationDate
	r.CreatedAt = current.CreatedAt
	r.UpdatedAt = requestcontext.Now(ctx).UTC()
	s.records[recordID] = r
	return r, nil
}

func (s *InMemoryStore) Get(_ context.Context, recordID id.RecordID) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[recordID]
	if !ok {
		return models.Record{}, ErrNotFound
	}
	return r, nil
}

// List returns every record ordered by registry number.
func (s *InMemoryStore) List(_ context.Context) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.all()
	slices.SortFunc(out, func(a, b models.Record) int {
		return cmp.Compare(a.RegistryNumber, b.RegistryNumber)
	})
	return out, nil
}

func (s *InMemoryStore) SearchDuplicates(_ context.Context, q models.DuplicateQuery) (models.DuplicateResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return search(s.all(), q), nil
}

// Clear removes every record and restarts numbering.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[id.RecordID]models.Record)
	s.seq = 0
}

func (s *InMemoryStore) all() []models.Record {
	return slices.Collect(maps.Values(s.records))
}
