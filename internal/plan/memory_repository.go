package plan

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.RWMutex
	plans map[string]*Plan
}

func NewMemoryRepository() Repository {
	return &memoryRepository{plans: make(map[string]*Plan)}
}

func clone(p *Plan) *Plan {
	c := *p
	c.Features = append([]string(nil), p.Features...)
	return &c
}

func (r *memoryRepository) Create(_ context.Context, p *Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[p.ID] = clone(p)
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return clone(p), nil
}

func (r *memoryRepository) ListByGym(_ context.Context, gymID string, onlyActive bool) ([]Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Plan{}
	for _, p := range r.plans {
		if p.GymID != gymID || (onlyActive && !p.IsActive) {
			continue
		}
		out = append(out, *clone(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Price.Equal(out[j].Price) {
			return out[i].Price.LessThan(out[j].Price)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *memoryRepository) Update(_ context.Context, p *Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.plans[p.ID]
	if !ok {
		return ErrPlanNotFound
	}
	stored.Name = p.Name
	stored.Price = p.Price
	stored.DurationDays = p.DurationDays
	stored.Features = append([]string(nil), p.Features...)
	stored.UpdatedAt = p.UpdatedAt
	return nil
}

func (r *memoryRepository) SetActive(_ context.Context, id string, isActive bool, at time.Time) (*Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	p.IsActive = isActive
	p.UpdatedAt = at
	return clone(p), nil
}
