package gym

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, g *Gym) error
	GetByID(ctx context.Context, id string) (*Gym, error)
	GetByCode(ctx context.Context, code string) (*Gym, error)
	// List returns gyms with the given status, or every gym when status is empty.
	List(ctx context.Context, status Status) ([]Gym, error)
	// UpdateStatus moves the gym from one status to another only if it is
	// still in from; otherwise it returns ErrStatusChanged.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) (*Gym, error)
	AddAdmin(ctx context.Context, id, userID string, at time.Time) (*Gym, error)
}
