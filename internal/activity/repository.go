package activity

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO activity_records (id, action, actor_id, target_type, target_id, gym_id, at)
		VALUES (:id, :action, :actor_id, :target_type, :target_id, :gym_id, :at)
	`
	_, err := r.db.NamedExecContext(ctx, query, rec)
	return err
}

func (r *repository) List(ctx context.Context, filter Filter) ([]Record, error) {
	query := `
		SELECT id, action, actor_id, target_type, target_id, gym_id, at
		FROM activity_records
	`
	args := []interface{}{}

	if filter.GymID != "" {
		args = append(args, filter.GymID)
		query += fmt.Sprintf(" WHERE gym_id = $%d", len(args))
	}

	args = append(args, filter.limit())
	query += fmt.Sprintf(" ORDER BY at DESC, id DESC LIMIT $%d", len(args))

	records := []Record{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, err
	}
	return records, nil
}
