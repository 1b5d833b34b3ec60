package activity

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Append(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *rec)
	return nil
}

func (r *memoryRepository) List(_ context.Context, filter Filter) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Record{}
	for _, rec := range r.records {
		if filter.GymID != "" && rec.GymID != filter.GymID {
			continue
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.After(out[j].At)
	})

	if limit := filter.limit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
