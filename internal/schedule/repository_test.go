package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	classCols = []string{"id", "gym_id", "trainer_id", "name", "description", "capacity", "class_date", "start_minute",
		"duration_minutes", "price", "is_active", "deleted_at", "created_at", "updated_at"}
	bookingCols = []string{"id", "class_id", "gym_id", "user_id", "status", "created_at", "cancelled_at"}
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "postgres")), mock
}

func classRow(ts time.Time, capacity int, active bool) *sqlmock.Rows {
	return sqlmock.NewRows(classCols).
		AddRow("c-1", "g-1", nil, "HIIT", "", capacity, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), 420,
			45, "12.50", active, nil, ts, ts)
}

func admitAll(*Class) error { return nil }

func TestRepository_CreateClass(t *testing.T) {
	repo, mock := newMockRepo(t)
	ts := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	date, _ := ParseDate("2026-05-10")
	c := &Class{
		ID: "c-1", GymID: "g-1", Name: "HIIT", Capacity: 10, Date: date, StartTime: 420,
		DurationMinutes: 45, Price: decimal.RequireFromString("12.50"), IsActive: true, CreatedAt: ts, UpdatedAt: ts,
	}

	mock.ExpectExec(`INSERT INTO classes`).
		WithArgs("c-1", "g-1", nil, "HIIT", "", 10, "2026-05-10", 420, 45, "12.5", true, ts, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateClass(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetClass(t *testing.T) {
	repo, mock := newMockRepo(t)
	ts := time.Now()

	mock.ExpectQuery(`SELECT (.+) AS confirmed_count FROM classes c WHERE c.id = \$1 AND c.deleted_at IS NULL`).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows(append(classCols, "confirmed_count")).
			AddRow("c-1", "g-1", "t-1", "HIIT", "", 10, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), 420,
				45, "12.50", true, nil, ts, ts, 4))

	c, err := repo.GetClass(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, 4, c.ConfirmedCount)
	assert.Equal(t, "07:00", c.StartTime.String())
	assert.Equal(t, "2026-05-10", c.Date.String())
	require.NotNil(t, c.TrainerID)
	assert.Equal(t, "t-1", *c.TrainerID)

	mock.ExpectQuery(`FROM classes c`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(classCols))

	_, err = repo.GetClass(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrClassNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Book(t *testing.T) {
	ts := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	booking := func() *Booking {
		return &Booking{ID: "b-1", ClassID: "c-1", GymID: "g-1", UserID: "u-1", Status: BookingConfirmed, CreatedAt: ts}
	}

	t.Run("locks class, checks and inserts", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM classes c WHERE c.id = \$1 AND c.deleted_at IS NULL FOR UPDATE`).
			WithArgs("c-1").
			WillReturnRows(classRow(ts, 5, true))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
			WithArgs("c-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("c-1", "u-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(`INSERT INTO bookings`).
			WithArgs("b-1", "c-1", "g-1", "u-1", "CONFIRMED", ts).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		c, err := repo.Book(context.Background(), booking(), admitAll)
		require.NoError(t, err)
		assert.Equal(t, 5, c.ConfirmedCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("full class rolls back", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(classRow(ts, 5, true))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		_, err := repo.Book(context.Background(), booking(), admitAll)
		assert.ErrorIs(t, err, ErrClassFull)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(classRow(ts, 5, true))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := repo.Book(context.Background(), booking(), admitAll)
		assert.ErrorIs(t, err, ErrDuplicateBooking)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique index backstop", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(classRow(ts, 5, true))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(`INSERT INTO bookings`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: oneConfirmedConstraint})
		mock.ExpectRollback()

		_, err := repo.Book(context.Background(), booking(), admitAll)
		assert.ErrorIs(t, err, ErrDuplicateBooking)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("admit rejects inactive class", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(classRow(ts, 5, false))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectRollback()

		_, err := repo.Book(context.Background(), booking(), func(c *Class) error {
			if !c.IsActive {
				return ErrClassInactive
			}
			return nil
		})
		assert.ErrorIs(t, err, ErrClassInactive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_CancelBooking(t *testing.T) {
	ts := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	t.Run("conditional update", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`UPDATE bookings SET status = 'CANCELLED', cancelled_at = \$1 WHERE id = \$2 AND status = 'CONFIRMED' RETURNING`).
			WithArgs(ts, "b-1").
			WillReturnRows(sqlmock.NewRows(bookingCols).AddRow("b-1", "c-1", "g-1", "u-1", "CANCELLED", ts, ts))

		b, err := repo.CancelBooking(context.Background(), "b-1", ts)
		require.NoError(t, err)
		assert.Equal(t, BookingCancelled, b.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already cancelled", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`UPDATE bookings`).WillReturnRows(sqlmock.NewRows(bookingCols))
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id = \$1`).
			WithArgs("b-1").
			WillReturnRows(sqlmock.NewRows(bookingCols).AddRow("b-1", "c-1", "g-1", "u-1", "CANCELLED", ts, ts))

		_, err := repo.CancelBooking(context.Background(), "b-1", ts)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrBookingNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`UPDATE bookings`).WillReturnRows(sqlmock.NewRows(bookingCols))
		mock.ExpectQuery(`FROM bookings WHERE id`).WillReturnRows(sqlmock.NewRows(bookingCols))

		_, err := repo.CancelBooking(context.Background(), "b-1", ts)
		assert.ErrorIs(t, err, ErrBookingNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_DeleteClass(t *testing.T) {
	ts := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	t.Run("soft delete and bulk cancel", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE classes SET deleted_at = \$1`).
			WithArgs(ts, "c-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE bookings SET status = 'CANCELLED'`).
			WithArgs(ts, "c-1").
			WillReturnResult(sqlmock.NewResult(0, 7))
		mock.ExpectCommit()

		n, err := repo.DeleteClass(context.Background(), "c-1", ts)
		require.NoError(t, err)
		assert.Equal(t, 7, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing class", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE classes`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.DeleteClass(context.Background(), "c-1", ts)
		assert.ErrorIs(t, err, ErrClassNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_ListBookingsByUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	ts := time.Now()

	mock.ExpectQuery(`FROM bookings b JOIN classes c ON b.class_id = c.id WHERE b.user_id = \$1`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(append(bookingCols, "class_name", "class_date", "class_start_minute")).
			AddRow("b-1", "c-1", "g-1", "u-1", "CONFIRMED", ts, nil, "HIIT", time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), 420))

	bookings, err := repo.ListBookingsByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "HIIT", bookings[0].ClassName)
	assert.Equal(t, "07:00", bookings[0].ClassStartTime.String())
	assert.Nil(t, bookings[0].CancelledAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_BookingStatsByDay(t *testing.T) {
	repo, mock := newMockRepo(t)
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	mock.ExpectQuery(`COUNT\(\*\) FILTER \(WHERE status = 'CANCELLED'\) AS bookings_cancelled FROM bookings WHERE gym_id = \$1`).
		WithArgs("g-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"day", "bookings_created", "bookings_cancelled"}).
			AddRow("2026-05-02", 4, 1).
			AddRow("2026-05-03", 2, 0))

	stats, err := repo.BookingStatsByDay(context.Background(), "g-1", from, to)
	require.NoError(t, err)
	assert.Equal(t, []DailyBookingStats{
		{Day: "2026-05-02", Created: 4, Cancelled: 1},
		{Day: "2026-05-03", Created: 2},
	}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
