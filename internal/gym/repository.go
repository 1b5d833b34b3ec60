package gym

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gymhub/internal/db"

	"github.com/jmoiron/sqlx"
)

const (
	gymColumns        = `id, name, location, gym_code, status, admin_ids, created_at, updated_at`
	gymCodeConstraint  = "gyms_gym_code_key"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, g *Gym) error {
	query := `
		INSERT INTO gyms (id, name, location, gym_code, status, admin_ids, created_at, updated_at)
		VALUES (:id, :name, :location, :gym_code, :status, :admin_ids, :created_at, :updated_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, g)
	if db.IsUniqueViolation(err, gymCodeConstraint) {
		return ErrGymCodeTaken
	}
	return err
}

func (r *repository) GetByID(ctx context.Context, id string) (*Gym, error) {
	return r.getOne(ctx, `SELECT `+gymColumns+` FROM gyms WHERE id = $1`, id)
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Gym, error) {
	return r.getOne(ctx, `SELECT `+gymColumns+` FROM gyms WHERE gym_code = $1`, code)
}

func (r *repository) getOne(ctx context.Context, query string, arg interface{}) (*Gym, error) {
	var g Gym
	if err := r.db.GetContext(ctx, &g, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGymNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *repository) List(ctx context.Context, status Status) ([]Gym, error) {
	query := `SELECT ` + gymColumns + ` FROM gyms`
	args := []interface{}{}

	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	gyms := []Gym{}
	if err := r.db.SelectContext(ctx, &gyms, query, args...); err != nil {
		return nil, err
	}
	return gyms, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) (*Gym, error) {
	query := `
		UPDATE gyms
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
		RETURNING ` + gymColumns

	var g Gym
	err := r.db.GetContext(ctx, &g, query, to, at, id, from)
	if err == nil {
		return &g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrStatusChanged
}

func (r *repository) AddAdmin(ctx context.Context, id, userID string, at time.Time) (*Gym, error) {
	query := `
		UPDATE gyms
		SET admin_ids = array_append(admin_ids, $1), updated_at = $2
		WHERE id = $3 AND NOT ($1 = ANY(admin_ids))
		RETURNING ` + gymColumns

	var g Gym
	err := r.db.GetContext(ctx, &g, query, userID, at, id)
	if err == nil {
		return &g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrAlreadyAdmin
}
