package membership

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memoryRepository keeps everything behind one mutex, which gives each
// method the all-or-nothing behaviour of a transaction.
type memoryRepository struct {
	mu          sync.Mutex
	memberships map[string]*Membership
	requests    map[string]*Request
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		memberships: make(map[string]*Membership),
		requests:    make(map[string]*Request),
	}
}

func cloneRequest(r *Request) *Request {
	c := *r
	return &c
}

func (r *memoryRepository) CreateMembership(_ context.Context, m *Membership, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(m, now)
}

func (r *memoryRepository) insertLocked(m *Membership, now time.Time) error {
	var lapsed []*Membership
	for _, existing := range r.memberships {
		if existing.UserID != m.UserID || existing.GymID != m.GymID || existing.Status != StatusActive {
			continue
		}
		if !existing.EndDate.Before(now) {
			return ErrActiveMembershipExists
		}
		lapsed = append(lapsed, existing)
	}

	for _, existing := range lapsed {
		existing.Status = StatusExpired
		existing.UpdatedAt = now
	}

	stored := *m
	r.memberships[m.ID] = &stored
	return nil
}

func (r *memoryRepository) GetMembership(_ context.Context, id string) (*Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memberships[id]
	if !ok {
		return nil, ErrMembershipNotFound
	}
	c := *m
	return &c, nil
}

func (r *memoryRepository) ListMemberships(_ context.Context, filter MembershipFilter) ([]Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []Membership{}
	for _, m := range r.memberships {
		if filter.UserID != "" && m.UserID != filter.UserID {
			continue
		}
		if filter.GymID != "" && m.GymID != filter.GymID {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out, nil
}

func (r *memoryRepository) UpdateMembership(_ context.Context, id string, now time.Time, fn func(m *Membership) error) (*Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.memberships[id]
	if !ok {
		return nil, ErrMembershipNotFound
	}

	m := *stored
	if err := fn(&m); err != nil {
		return nil, err
	}

	if m.Status == StatusActive && stored.Status != StatusActive {
		var lapsed []*Membership
		for _, other := range r.memberships {
			if other.ID == id || other.UserID != m.UserID || other.GymID != m.GymID || other.Status != StatusActive {
				continue
			}
			if !other.EndDate.Before(now) {
				return nil, ErrActiveMembershipExists
			}
			lapsed = append(lapsed, other)
		}
		for _, other := range lapsed {
			other.Status = StatusExpired
			other.UpdatedAt = now
		}
	}

	stored.Status = m.Status
	stored.EndDate = m.EndDate
	stored.AutoRenew = m.AutoRenew
	stored.UpdatedAt = m.UpdatedAt
	return &m, nil
}

func (r *memoryRepository) ExpireLapsed(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, m := range r.memberships {
		if m.Status == StatusActive && m.EndDate.Before(now) {
			m.Status = StatusExpired
			m.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (r *memoryRepository) CreateRequest(_ context.Context, req *Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.requests {
		if existing.UserID == req.UserID && existing.GymID == req.GymID && existing.Status == RequestPending {
			return ErrDuplicateRequest
		}
	}
	r.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *memoryRepository) GetRequest(_ context.Context, id string) (*Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	return cloneRequest(req), nil
}

func (r *memoryRepository) ListRequests(_ context.Context, filter RequestFilter) ([]Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []Request{}
	for _, req := range r.requests {
		if filter.UserID != "" && req.UserID != filter.UserID {
			continue
		}
		if filter.GymID != "" && req.GymID != filter.GymID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	return out, nil
}

func (r *memoryRepository) ResolveRequest(_ context.Context, id string, res Resolution) (*Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	if req.Status != RequestPending {
		return nil, ErrRequestNotPending
	}

	if res.Membership != nil {
		if err := r.insertLocked(res.Membership, res.ResolvedAt); err != nil {
			return nil, err
		}
		membershipID := res.Membership.ID
		req.MembershipID = &membershipID
	}

	resolvedAt, resolvedBy := res.ResolvedAt, res.ResolvedBy
	req.Status = res.Status
	req.ResolvedAt = &resolvedAt
	req.ResolvedBy = &resolvedBy
	return cloneRequest(req), nil
}
