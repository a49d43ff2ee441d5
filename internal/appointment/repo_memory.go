package appointment

import (
	"context"
	"sync"
)

// MemoryRepo is a simple in-memory repository useful for tests and early
// development. Not intended for production; use RedisRepo or PostgresRepo.
type MemoryRepo struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Store(ctx context.Context, rec Record) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Record, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out, nil
}

func (r *MemoryRepo) ListByDay(ctx context.Context, day string) ([]Record, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Record
	for _, rec := range r.records {
		if rec.PreferredDay == day {
			out = append(out, rec)
		}
	}
	return out, nil
}
