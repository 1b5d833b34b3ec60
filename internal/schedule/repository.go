package schedule

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gymhub/internal/db"

	"github.com/jmoiron/sqlx"
)

const (
	classColumns = `c.id, c.gym_id, c.trainer_id, c.name, c.description, c.capacity, c.class_date, c.start_minute,
		c.duration_minutes, c.price, c.is_active, c.deleted_at, c.created_at, c.updated_at`

	confirmedCount = `(SELECT COUNT(*) FROM bookings b WHERE b.class_id = c.id AND b.status = 'CONFIRMED') AS confirmed_count`

	bookingWithClassColumns = `b.id, b.class_id, b.gym_id, b.user_id, b.status, b.created_at, b.cancelled_at,
		c.name AS class_name, c.class_date, c.start_minute AS class_start_minute`

	oneConfirmedConstraint = "bookings_one_confirmed_idx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateClass(ctx context.Context, c *Class) error {
	query := `
		INSERT INTO classes (id, gym_id, trainer_id, name, description, capacity, class_date, start_minute,
			duration_minutes, price, is_active, created_at, updated_at)
		VALUES (:id, :gym_id, :trainer_id, :name, :description, :capacity, :class_date, :start_minute,
			:duration_minutes, :price, :is_active, :created_at, :updated_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, c)
	return err
}

func (r *repository) GetClass(ctx context.Context, id string) (*Class, error) {
	query := `SELECT ` + classColumns + `, ` + confirmedCount + `
		FROM classes c
		WHERE c.id = $1 AND c.deleted_at IS NULL`

	var c Class
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListClasses(ctx context.Context, gymID string, includeInactive bool) ([]Class, error) {
	query := `SELECT ` + classColumns + `, ` + confirmedCount + `
		FROM classes c
		WHERE c.gym_id = $1 AND c.deleted_at IS NULL`
	if !includeInactive {
		query += ` AND c.is_active`
	}
	query += ` ORDER BY c.class_date, c.start_minute`

	classes := []Class{}
	if err := r.db.SelectContext(ctx, &classes, query, gymID); err != nil {
		return nil, err
	}
	return classes, nil
}

// lockClass takes the row lock that serializes every booking change of a
// class and reads its confirmed count under that lock.
func lockClass(ctx context.Context, tx *sqlx.Tx, id string) (*Class, error) {
	var c Class
	err := tx.GetContext(ctx, &c, `SELECT `+classColumns+` FROM classes c WHERE c.id = $1 AND c.deleted_at IS NULL FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	err = tx.GetContext(ctx, &c.ConfirmedCount, `SELECT COUNT(*) FROM bookings WHERE class_id = $1 AND status = 'CONFIRMED'`, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) UpdateClass(ctx context.Context, id string, fn func(c *Class) error) (*Class, error) {
	var updated *Class
	err := db.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		c, err := lockClass(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}

		query := `
			UPDATE classes
			SET trainer_id = :trainer_id, name = :name, description = :description, capacity = :capacity,
				class_date = :class_date, start_minute = :start_minute, duration_minutes = :duration_minutes,
				price = :price, is_active = :is_active, updated_at = :updated_at
			WHERE id = :id
		`
		if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *repository) DeleteClass(ctx context.Context, id string, at time.Time) (int, error) {
	var cancelled int64
	err := db.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE classes SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`, at, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrClassNotFound
		}

		res, err = tx.ExecContext(ctx, `
			UPDATE bookings
			SET status = 'CANCELLED', cancelled_at = $1
			WHERE class_id = $2 AND status = 'CONFIRMED'
		`, at, id)
		if err != nil {
			return err
		}
		cancelled, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return int(cancelled), nil
}

func (r *repository) Book(ctx context.Context, b *Booking, admit func(c *Class) error) (*Class, error) {
	var booked *Class
	err := db.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		c, err := lockClass(ctx, tx, b.ClassID)
		if err != nil {
			return err
		}
		if err := admit(c); err != nil {
			return err
		}

		duplicate, err := db.Exists(ctx, tx,
			`SELECT EXISTS(SELECT 1 FROM bookings WHERE class_id = $1 AND user_id = $2 AND status = 'CONFIRMED')`,
			b.ClassID, b.UserID)
		if err != nil {
			return err
		}
		if duplicate {
			return ErrDuplicateBooking
		}
		if c.ConfirmedCount >= c.Capacity {
			return ErrClassFull
		}

		query := `
			INSERT INTO bookings (id, class_id, gym_id, user_id, status, created_at)
			VALUES (:id, :class_id, :gym_id, :user_id, :status, :created_at)
		`
		if _, err := tx.NamedExecContext(ctx, query, b); err != nil {
			if db.IsUniqueViolation(err, oneConfirmedConstraint) {
				return ErrDuplicateBooking
			}
			return err
		}

		c.ConfirmedCount++
		booked = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booked, nil
}

func (r *repository) GetBooking(ctx context.Context, id string) (*Booking, error) {
	query := `
		SELECT id, class_id, gym_id, user_id, status, created_at, cancelled_at
		FROM bookings
		WHERE id = $1
	`

	var b Booking
	if err := r.db.GetContext(ctx, &b, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// CancelBooking flips a CONFIRMED booking to CANCELLED. The conditional
// update frees exactly one seat even under concurrent cancels.
func (r *repository) CancelBooking(ctx context.Context, id string, at time.Time) (*Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'CANCELLED', cancelled_at = $1
		WHERE id = $2 AND status = 'CONFIRMED'
		RETURNING id, class_id, gym_id, user_id, status, created_at, cancelled_at
	`

	var b Booking
	err := r.db.GetContext(ctx, &b, query, at, id)
	if errors.Is(err, sql.ErrNoRows) {
		existing, err := r.GetBooking(ctx, id)
		if err != nil {
			return nil, err
		}
		if _, err := existing.Status.Cancel(); err != nil {
			return nil, err
		}
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListBookingsByUser(ctx context.Context, userID string) ([]BookingWithClass, error) {
	query := `SELECT ` + bookingWithClassColumns + `
		FROM bookings b
		JOIN classes c ON b.class_id = c.id
		WHERE b.user_id = $1
		ORDER BY c.class_date DESC, c.start_minute DESC`

	bookings := []BookingWithClass{}
	if err := r.db.SelectContext(ctx, &bookings, query, userID); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) ListBookingsByClass(ctx context.Context, classID string) ([]BookingWithClass, error) {
	query := `SELECT ` + bookingWithClassColumns + `
		FROM bookings b
		JOIN classes c ON b.class_id = c.id
		WHERE b.class_id = $1
		ORDER BY b.created_at`

	bookings := []BookingWithClass{}
	if err := r.db.SelectContext(ctx, &bookings, query, classID); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) BookingStatsByDay(ctx context.Context, gymID string, from, to time.Time) ([]DailyBookingStats, error) {
	query := `
		SELECT
			TO_CHAR(DATE(created_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD') AS day,
			COUNT(*) AS bookings_created,
			COUNT(*) FILTER (WHERE status = 'CANCELLED') AS bookings_cancelled
		FROM bookings
		WHERE gym_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY day
		ORDER BY day
	`

	stats := []DailyBookingStats{}
	if err := r.db.SelectContext(ctx, &stats, query, gymID, from, to); err != nil {
		return nil, err
	}
	return stats, nil
}
