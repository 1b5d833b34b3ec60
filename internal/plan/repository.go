package plan

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

const planColumns = `id, gym_id, name, price, duration_days, features, is_active, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Plan) error {
	query := `
		INSERT INTO plans (id, gym_id, name, price, duration_days, features, is_active, created_at, updated_at)
		VALUES (:id, :gym_id, :name, :price, :duration_days, :features, :is_active, :created_at, :updated_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, p)
	return err
}

func (r *repository) GetByID(ctx context.Context, id string) (*Plan, error) {
	var p Plan
	err := r.db.GetContext(ctx, &p, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListByGym(ctx context.Context, gymID string, onlyActive bool) ([]Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE gym_id = $1`
	if onlyActive {
		query += " AND is_active"
	}
	query += " ORDER BY price ASC, name ASC"

	plans := []Plan{}
	if err := r.db.SelectContext(ctx, &plans, query, gymID); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) Update(ctx context.Context, p *Plan) error {
	query := `
		UPDATE plans
		SET name = :name, price = :price, duration_days = :duration_days, features = :features, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id string, isActive bool, at time.Time) (*Plan, error) {
	query := `
		UPDATE plans
		SET is_active = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + planColumns

	var p Plan
	if err := r.db.GetContext(ctx, &p, query, isActive, at, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &p, nil
}
