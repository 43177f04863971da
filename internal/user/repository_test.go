package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupUserMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func TestCreateAndFindUser(t *testing.T) {
	repo, mock, closeDB := setupUserMock(t)
	defer closeDB()

	ctx := context.Background()
	now := time.Now()
	userCols := []string{"id", "name", "email", "password_hash", "role", "verified", "created_at"}

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Alice", "a@example.com", "hash", "member").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, "Alice", "a@example.com", "hash", "member", false, now))

	u, err := repo.Create(ctx, "Alice", "a@example.com", "hash", "member")
	require.NoError(t, err)
	require.Equal(t, 1, u.ID)

	mock.ExpectQuery("SELECT id, name, email, password_hash, role, verified, created_at").
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, "Alice", "a@example.com", "hash", "member", false, now))

	fu, err := repo.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, "Alice", fu.Name)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.EmailExists(ctx, "a@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileLookupByQRIdentifier(t *testing.T) {
	repo, mock, closeDB := setupUserMock(t)
	defer closeDB()

	ctx := context.Background()
	now := time.Now()
	profileCols := []string{"id", "user_id", "gender", "qr_identifier", "created_at"}

	mock.ExpectQuery("SELECT id, user_id, gender, qr_identifier, created_at").
		WithArgs("qr-abc").
		WillReturnRows(sqlmock.NewRows(profileCols).AddRow(5, 7, "M", "qr-abc", now))

	p, err := repo.GetProfileByQRIdentifier(ctx, "qr-abc")
	require.NoError(t, err)
	require.Equal(t, 7, p.UserID)
	require.Equal(t, "qr-abc", p.QRIdentifier)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationTokenLifecycle(t *testing.T) {
	repo, mock, closeDB := setupUserMock(t)
	defer closeDB()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectExec("INSERT INTO email_verification_tokens").
		WithArgs(3, "tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpsertVerificationToken(ctx, 3, "tok-1"))

	mock.ExpectQuery("SELECT user_id, token, created_at").
		WithArgs("tok-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "token", "created_at"}).AddRow(3, "tok-1", now))

	vt, err := repo.GetVerificationToken(ctx, "tok-1")
	require.NoError(t, err)
	require.Equal(t, 3, vt.UserID)

	mock.ExpectExec("UPDATE users SET verified").
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkVerified(ctx, 3))

	mock.ExpectExec("DELETE FROM email_verification_tokens").
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteVerificationToken(ctx, "tok-1"))

	require.NoError(t, mock.ExpectationsWereMet())
}
