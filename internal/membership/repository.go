package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gymhub/internal/db"

	"github.com/jmoiron/sqlx"
)

const (
	membershipColumns = `id, user_id, gym_id, plan_id, plan_name, plan_price, plan_duration_days,
		status, start_date, end_date, auto_renew, created_at, updated_at`

	requestColumns = `id, user_id, gym_id, gym_code, message, status, requested_at, resolved_at, resolved_by, membership_id`

	oneActiveConstraint     = "memberships_one_active_idx"
	onePendingReqConstraint = "membership_requests_one_pending_idx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateMembership(ctx context.Context, m *Membership, now time.Time) error {
	return db.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return insertMembership(ctx, tx, m, now)
	})
}

// expireSiblings persists EXPIRED on lapsed ACTIVE rows of the user at the
// gym so the one-active index only sees memberships that are still running.
func expireSiblings(ctx context.Context, tx *sqlx.Tx, userID, gymID, exceptID string, now time.Time) error {
	expire := `
		UPDATE memberships
		SET status = 'EXPIRED', updated_at = $1
		WHERE user_id = $2 AND gym_id = $3 AND status = 'ACTIVE' AND end_date < $1 AND id <> $4
	`
	if _, err := tx.ExecContext(ctx, expire, now, userID, gymID, exceptID); err != nil {
		return fmt.Errorf("expire lapsed memberships: %w", err)
	}
	return nil
}

func insertMembership(ctx context.Context, tx *sqlx.Tx, m *Membership, now time.Time) error {
	if err := expireSiblings(ctx, tx, m.UserID, m.GymID, m.ID, now); err != nil {
		return err
	}

	insert := `
		INSERT INTO memberships (id, user_id, gym_id, plan_id, plan_name, plan_price, plan_duration_days,
			status, start_date, end_date, auto_renew, created_at, updated_at)
		VALUES (:id, :user_id, :gym_id, :plan_id, :plan_name, :plan_price, :plan_duration_days,
			:status, :start_date, :end_date, :auto_renew, :created_at, :updated_at)
	`
	if _, err := tx.NamedExecContext(ctx, insert, m); err != nil {
		if db.IsUniqueViolation(err, oneActiveConstraint) {
			return ErrActiveMembershipExists
		}
		return err
	}
	return nil
}

func (r *repository) GetMembership(ctx context.Context, id string) (*Membership, error) {
	var m Membership
	err := r.db.GetContext(ctx, &m, `SELECT `+membershipColumns+` FROM memberships WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *repository) ListMemberships(ctx context.Context, filter MembershipFilter) ([]Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE 1 = 1`
	args := []interface{}{}

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.GymID != "" {
		args = append(args, filter.GymID)
		query += fmt.Sprintf(" AND gym_id = $%d", len(args))
	}
	query += " ORDER BY start_date DESC"

	memberships := []Membership{}
	if err := r.db.SelectContext(ctx, &memberships, query, args...); err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *repository) UpdateMembership(ctx context.Context, id string, now time.Time, fn func(m *Membership) error) (*Membership, error) {
	var m Membership
	err := db.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &m, `SELECT `+membershipColumns+` FROM memberships WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMembershipNotFound
			}
			return err
		}

		previous := m.Status
		if err := fn(&m); err != nil {
			return err
		}

		if m.Status == StatusActive && previous != StatusActive {
			if err := expireSiblings(ctx, tx, m.UserID, m.GymID, m.ID, now); err != nil {
				return err
			}
		}

		update := `
			UPDATE memberships
			SET status = :status, end_date = :end_date, auto_renew = :auto_renew, updated_at = :updated_at
			WHERE id = :id
		`
		if _, err := tx.NamedExecContext(ctx, update, &m); err != nil {
			if db.IsUniqueViolation(err, oneActiveConstraint) {
				return ErrActiveMembershipExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE memberships
		SET status = 'EXPIRED', updated_at = $1
		WHERE status = 'ACTIVE' AND end_date < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) CreateRequest(ctx context.Context, req *Request) error {
	query := `
		INSERT INTO membership_requests (id, user_id, gym_id, gym_code, message, status, requested_at)
		VALUES (:id, :user_id, :gym_id, :gym_code, :message, :status, :requested_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, req)
	if db.IsUniqueViolation(err, onePendingReqConstraint) {
		return ErrDuplicateRequest
	}
	return err
}

func (r *repository) GetRequest(ctx context.Context, id string) (*Request, error) {
	var req Request
	err := r.db.GetContext(ctx, &req, `SELECT `+requestColumns+` FROM membership_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *repository) ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error) {
	query := `SELECT ` + requestColumns + ` FROM membership_requests WHERE 1 = 1`
	args := []interface{}{}

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.GymID != "" {
		args = append(args, filter.GymID)
		query += fmt.Sprintf(" AND gym_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY requested_at DESC"

	requests := []Request{}
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) ResolveRequest(ctx context.Context, id string, res Resolution) (*Request, error) {
	var req Request
	err := db.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var membershipID *string
		if res.Membership != nil {
			membershipID = &res.Membership.ID
		}

		query := `
			UPDATE membership_requests
			SET status = $1, resolved_at = $2, resolved_by = $3, membership_id = $4
			WHERE id = $5 AND status = 'PENDING'
			RETURNING ` + requestColumns
		err := tx.GetContext(ctx, &req, query, res.Status, res.ResolvedAt, res.ResolvedBy, membershipID, id)
		if errors.Is(err, sql.ErrNoRows) {
			exists, err := db.Exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM membership_requests WHERE id = $1)`, id)
			if err != nil {
				return err
			}
			if !exists {
				return ErrRequestNotFound
			}
			return ErrRequestNotPending
		}
		if err != nil {
			return err
		}

		if res.Membership != nil {
			return insertMembership(ctx, tx, res.Membership, res.ResolvedAt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}
