package gym

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu   sync.RWMutex
	gyms map[string]*Gym
}

func NewMemoryRepository() Repository {
	return &memoryRepository{gyms: make(map[string]*Gym)}
}

func clone(g *Gym) *Gym {
	c := *g
	c.AdminIDs = append([]string(nil), g.AdminIDs...)
	return &c
}

func (r *memoryRepository) Create(_ context.Context, g *Gym) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.gyms {
		if existing.Code == g.Code {
			return ErrGymCodeTaken
		}
	}
	r.gyms[g.ID] = clone(g)
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*Gym, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.gyms[id]
	if !ok {
		return nil, ErrGymNotFound
	}
	return clone(g), nil
}

func (r *memoryRepository) GetByCode(_ context.Context, code string) (*Gym, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range r.gyms {
		if g.Code == code {
			return clone(g), nil
		}
	}
	return nil, ErrGymNotFound
}

func (r *memoryRepository) List(_ context.Context, status Status) ([]Gym, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Gym{}
	for _, g := range r.gyms {
		if status == "" || g.Status == status {
			out = append(out, *clone(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryRepository) UpdateStatus(_ context.Context, id string, from, to Status, at time.Time) (*Gym, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.gyms[id]
	if !ok {
		return nil, ErrGymNotFound
	}
	if g.Status != from {
		return nil, ErrStatusChanged
	}
	g.Status = to
	g.UpdatedAt = at
	return clone(g), nil
}

func (r *memoryRepository) AddAdmin(_ context.Context, id, userID string, at time.Time) (*Gym, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.gyms[id]
	if !ok {
		return nil, ErrGymNotFound
	}
	if g.HasAdmin(userID) {
		return nil, ErrAlreadyAdmin
	}
	g.AdminIDs = append(g.AdminIDs, userID)
	g.UpdatedAt = at
	return clone(g), nil
}
