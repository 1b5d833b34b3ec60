package plan

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, p *Plan) error
	GetByID(ctx context.Context, id string) (*Plan, error)
	ListByGym(ctx context.Context, gymID string, onlyActive bool) ([]Plan, error)
	Update(ctx context.Context, p *Plan) error
	SetActive(ctx context.Context, id string, isActive bool, at time.Time) (*Plan, error)
}
