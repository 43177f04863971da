package schedule

import (
	"context"
	"regexp"
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

func TestRepositoryCreateBooking(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	bookedOn := time.Now()
	mock.ExpectQuery("INSERT INTO bookings").
		WithArgs(5, 7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "user_id", "booked_on"}).
			AddRow(20, 5, 7, bookedOn))

	booking, err := repo.CreateBooking(context.Background(), 5, 7)

	assert.NoError(t, err)
	assert.Equal(t, 20, booking.ID)
	assert.Equal(t, 5, booking.SessionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCountBookingsForSession(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountBookingsForSession(context.Background(), 5)

	assert.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDeleteSessionFamily(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	from := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("DELETE FROM sessions").
		WithArgs(1, from, to).
		WillReturnResult(sqlmock.NewResult(0, 5))

	deleted, err := repo.DeleteSessionFamily(context.Background(), 1, from, to)

	assert.NoError(t, err)
	assert.Equal(t, 5, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryOverlappingSessionsForTrainer(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	start := time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	rows := sqlmock.NewRows([]string{
		"id", "class_id", "start_time", "end_time", "trainer_id",
		"recurring", "recurrence_end_date", "created_at",
		"class_title", "class_is_private",
	}).AddRow(9, 1, start, end, 3, false, nil, time.Now(), "Yoga", false)

	mock.ExpectQuery("FROM sessions s").
		WithArgs(3, end, start, 5).
		WillReturnRows(rows)

	sessions, err := repo.OverlappingSessionsForTrainer(context.Background(), 3, start, end, 5)

	assert.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 9, sessions[0].ID)
	assert.False(t, sessions[0].ClassIsPrivate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUnassignSessionTrainer(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectExec("UPDATE sessions SET trainer_id = NULL").
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UnassignSessionTrainer(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}
