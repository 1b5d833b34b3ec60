package membership

import (
	"context"
	"time"
)

type Repository interface {
	// CreateMembership persists lapsed ACTIVE rows of the same user and gym
	// as EXPIRED and inserts m in one transaction. It returns
	// ErrActiveMembershipExists when an unexpired ACTIVE membership remains.
	CreateMembership(ctx context.Context, m *Membership, now time.Time) error
	GetMembership(ctx context.Context, id string) (*Membership, error)
	ListMemberships(ctx context.Context, filter MembershipFilter) ([]Membership, error)
	// UpdateMembership locks the row, lets fn change it and writes the
	// result back. Nothing is written when fn returns an error. When fn
	// moves the row to ACTIVE, lapsed ACTIVE siblings of the same user and
	// gym are persisted as EXPIRED first.
	UpdateMembership(ctx context.Context, id string, now time.Time, fn func(m *Membership) error) (*Membership, error)
	// ExpireLapsed persists EXPIRED on every ACTIVE membership whose end
	// date is before now and reports how many rows changed.
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)

	CreateRequest(ctx context.Context, r *Request) error
	GetRequest(ctx context.Context, id string) (*Request, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error)
	// ResolveRequest applies res to a PENDING request, creating
	// res.Membership in the same transaction when it is set.
	ResolveRequest(ctx context.Context, id string, res Resolution) (*Request, error)
}
