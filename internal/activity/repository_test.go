package activity

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestRepositoryAppend(t *testing.T) {
	dbx, mock := newMockDB(t)
	repo := NewRepository(dbx)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO activity_records`).
		WithArgs("r-1", ActionGymApproved, "root", TargetGym, "g-1", "g-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(context.Background(), &Record{
		ID: "r-1", Action: ActionGymApproved, ActorID: "root",
		TargetType: TargetGym, TargetID: "g-1", GymID: "g-1", At: at,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryList(t *testing.T) {
	dbx, mock := newMockDB(t)
	repo := NewRepository(dbx)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cols := []string{"id", "action", "actor_id", "target_type", "target_id", "gym_id", "at"}

	mock.ExpectQuery(`SELECT (.+) FROM activity_records WHERE gym_id = \$1 ORDER BY at DESC, id DESC LIMIT \$2`).
		WithArgs("g-1", defaultLimit).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("r-2", "GYM_SUSPENDED", "root", "gym", "g-1", "g-1", at.Add(time.Hour)).
			AddRow("r-1", "GYM_APPROVED", "root", "gym", "g-1", "g-1", at))

	records, err := repo.List(context.Background(), Filter{GymID: "g-1"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ActionGymSuspended, records[0].Action)

	mock.ExpectQuery(`SELECT (.+) FROM activity_records ORDER BY at DESC, id DESC LIMIT \$1`).
		WithArgs(maxLimit).
		WillReturnRows(sqlmock.NewRows(cols))

	records, err = repo.List(context.Background(), Filter{Limit: 10000})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}
