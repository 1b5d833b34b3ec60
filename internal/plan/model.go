package plan

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Plan struct {
	ID           string          `db:"id" json:"id"`
	GymID        string          `db:"gym_id" json:"gym_id"`
	Name         string          `db:"name" json:"name"`
	Price        decimal.Decimal `db:"price" json:"price" swaggertype:"string" example:"29.99"`
	DurationDays int             `db:"duration_days" json:"duration_days"`
	Features     pq.StringArray  `db:"features" json:"features" swaggertype:"array,string"`
	IsActive     bool            `db:"is_active" json:"is_active"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

type CreatePlanRequest struct {
	Name         string          `json:"name" validate:"required,max=120" example:"Gold"`
	Price        decimal.Decimal `json:"price" swaggertype:"string" example:"29.99"`
	DurationDays int             `json:"duration_days" validate:"gt=0" example:"30"`
	Features     []string        `json:"features" validate:"dive,required" example:"sauna"`
}

// UpdatePlanRequest changes only the fields that are present.
type UpdatePlanRequest struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Price        *decimal.Decimal `json:"price,omitempty" swaggertype:"string"`
	DurationDays *int             `json:"duration_days,omitempty" validate:"omitempty,gt=0"`
	Features     []string         `json:"features,omitempty" validate:"omitempty,dive,required"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type ListQuery struct {
	IncludeInactive bool `form:"include_inactive"`
}
