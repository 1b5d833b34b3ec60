package activity

import "context"

type Repository interface {
	Append(ctx context.Context, rec *Record) error
	List(ctx context.Context, filter Filter) ([]Record, error)
}
