package scores

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ehr/examscore/pkg/pagination"
)

type CalculationRepository interface {
	Create(ctx context.Context, r *CalculationRecord) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*CalculationRecord, int, error)
}

// DefaultMemoryCapacity bounds the in-memory audit trail.
const DefaultMemoryCapacity = 10000

// memoryRepo keeps the most recent records when no database is configured.
// Once full, the oldest record is overwritten.
type memoryRepo struct {
	mu       sync.RWMutex
	capacity int
	records  []*CalculationRecord // ring buffer
	next     int
	full     bool
}

func NewMemoryRepo(capacity int) CalculationRepository {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &memoryRepo{capacity: capacity, records: make([]*CalculationRecord, capacity)}
}

func (m *memoryRepo) Create(_ context.Context, r *CalculationRecord) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	cp := *r
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[m.next] = &cp
	m.next = (m.next + 1) % m.capacity
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// List returns matching records newest first.
func (m *memoryRepo) List(_ context.Context, filter ListFilter, limit, offset int) ([]*CalculationRecord, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.next
	if m.full {
		n = m.capacity
	}
	var matched []*CalculationRecord
	for i := 1; i <= n; i++ {
		r := m.records[(m.next-i+m.capacity)%m.capacity]
		if filter.matches(r) {
			cp := *r
			matched = append(matched, &cp)
		}
	}
	return pagination.Page(matched, limit, offset), len(matched), nil
}
